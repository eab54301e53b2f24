package cli

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"kanban-board/domain"
)

func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func printBoard(w io.Writer, b domain.Board) {
	fmt.Fprintf(w, "%s (%s)\n", b.Title, b.ID)
	if len(b.Columns) == 0 {
		fmt.Fprintln(w, "  no columns")
		return
	}
	for _, c := range b.Columns {
		fmt.Fprintf(w, "\n[%d] %s (%s)\n", c.Position, c.Title, c.ID)
		if len(c.Tasks) == 0 {
			fmt.Fprintln(w, "    -")
			continue
		}
		for _, t := range c.Tasks {
			fmt.Fprintf(w, "    %d. %s [%s] (%s)\n", t.Position, t.Title, t.Priority, t.ID)
		}
	}
}

func taskCount(b domain.Board) int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}
