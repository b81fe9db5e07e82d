package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = errorItem{}

// errorItem wraps [ErrorRow] to implement [list.Item].
type errorItem struct {
	row ErrorRow
}

func (i errorItem) FilterValue() string { return i.row.Operation + " " + i.row.Kind }
func (i errorItem) Title() string {
	return fmt.Sprintf("%s %s", styles.code(i.row.Status).Render(strconv.Itoa(i.row.Status)), i.row.Operation)
}
func (i errorItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.row.Kind, i.row.CreatedAt.Local().Format("15:04:05"))
	if i.row.Message != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.row.Message)
	}
	return desc
}
