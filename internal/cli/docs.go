package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"velo/internal/store"
)

var (
	colorDim    = lipgloss.Color("240")
	colorGray   = lipgloss.Color("245")
	colorAccent = lipgloss.Color("39")
)

func (c *CLI) docsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "docs",
		Aliases: []string{"ls"},
		Short:   "List saved documents and their tabs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDocs(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (c *CLI) runDocs(ctx context.Context, w io.Writer) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	idx, err := loadIndex(ctx, st)
	if err != nil {
		return err
	}
	if len(idx.Documents) == 0 {
		fmt.Fprintln(w, "no documents")
		return nil
	}

	var rows [][]string
	current := map[int]bool{}
	for _, d := range idx.Documents {
		for _, t := range d.Tabs {
			nodes, arrows := "-", "-"
			cp, err := st.LoadCheckpoint(ctx, d.ID, t.ID)
			switch {
			case err == nil:
				cp.Prune()
				nodes, arrows = strconv.Itoa(cp.NodeCount()), strconv.Itoa(cp.ArrowCount())
			case !errors.Is(err, store.ErrNotFound):
				c.Logger.Warn("could not read tab", "document", d.Name, "tab", t.Name, "err", err)
			}
			mark := ""
			if t.Active {
				mark = "*"
			}
			if d.ID == idx.Current && t.Active {
				current[len(rows)] = true
			}
			rows = append(rows, []string{d.Name, mark + t.Name, nodes, arrows, d.ID.String()[:8]})
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Document", "Tab", "Nodes", "Arrows", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case current[row]:
				return base.Foreground(colorAccent)
			case col == 4:
				return base.Foreground(colorDim)
			}
			return base
		})
	fmt.Fprintln(w, t.Render())
	return nil
}

// loadIndex treats an empty store as having no documents.
func loadIndex(ctx context.Context, st store.Store) (store.Index, error) {
	idx, err := st.LoadIndex(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return store.Index{}, nil
	}
	if err != nil {
		return store.Index{}, fmt.Errorf("load documents: %w", err)
	}
	return idx, nil
}
