// Package ui implements the `ytmp monitor` dashboard using bubbletea's Elm architecture.
//
// The monitor polls a running proxy and offers three views:
//  1. [DashboardView] : overall status, breaker state, last probe and error counts by kind
//  2. [ErrorsView] : recent classified failures from /api/errors
//  3. [DetailView] : one failure with its request id, path and technical details
//
// The [Model] implements the standard Init/Update/View pattern and receives messages via the [Msg] union type.
// Each poll runs as a tea.Cmd against a [Source], so a slow proxy never blocks rendering.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, r, q) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
