package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the monitor.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTick MsgKind = iota
	MsgStatusFetched
	MsgErrorsFetched
)

type statusResult struct {
	snapshot *Snapshot
	err      error
}

type errorsResult struct {
	rows []ErrorRow
	err  error
}

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}

// statusFetchedMsg is the constructor for [MsgStatusFetched]
func statusFetchedMsg(snapshot *Snapshot, err error) Msg {
	return Msg{kind: MsgStatusFetched, data: statusResult{snapshot, err}}
}

// errorsFetchedMsg is the constructor for [MsgErrorsFetched]
func errorsFetchedMsg(rows []ErrorRow, err error) Msg {
	return Msg{kind: MsgErrorsFetched, data: errorsResult{rows, err}}
}
