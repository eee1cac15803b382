package settings

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Print writes a human-readable dump of the tree to w: one row per node,
// indented by depth, with its item type, value type, dependency count and
// current value.
func (t *Tree) Print(w io.Writer) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Key", "Item", "Type", "Deps", "Value"})
	t.Walk(func(n *Node, depth int) {
		value := n.value.ToString()
		if n.required && !n.value.IsSet() {
			value = "(required)"
		}
		tw.AppendRow(table.Row{
			strings.Repeat("  ", depth) + n.key.String(),
			n.itemType.String(),
			n.value.TypeName(),
			strconv.Itoa(n.NumDependencies()),
			value,
		})
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	_, err := fmt.Fprintln(w, tw.Render())
	return err
}
