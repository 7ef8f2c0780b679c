package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"velo/internal/export"
	"velo/internal/geom"
	"velo/internal/store"
)

const (
	formatPNG = "png"
	formatTXT = "txt"
)

type exportOpts struct {
	tab    string
	format string
	output string
	width  float64
	height float64
}

func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{width: export.DefaultExtent.X, height: export.DefaultExtent.Y}
	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Render a tab as PNG or plain text",
		Long:  `Export renders one tab of a saved document. The document and tab may be given by id or by name; without --tab the document's active tab is used.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.tab, "tab", "", "tab id or name")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "png or txt (default from the output extension, else txt)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "canvas width percentage sizes resolve against")
	cmd.Flags().Float64Var(&opts.height, "height", opts.height, "canvas height percentage sizes resolve against")
	return cmd
}

func (c *CLI) runExport(ctx context.Context, stdout io.Writer, docRef string, opts exportOpts) error {
	format, err := exportFormat(opts.format, opts.output)
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	idx, err := loadIndex(ctx, st)
	if err != nil {
		return err
	}
	doc, err := findDocument(idx, docRef)
	if err != nil {
		return err
	}
	tab, err := findTab(doc, opts.tab)
	if err != nil {
		return err
	}
	cp, err := st.LoadCheckpoint(ctx, doc.ID, tab.ID)
	if err != nil {
		return fmt.Errorf("load tab %q: %w", tab.Name, err)
	}
	for _, a := range cp.Prune() {
		c.Logger.Warn("dropping dangling arrow", "tab", tab.Name, "arrow", a.ID)
	}

	w := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	eo := export.Options{Extent: geom.Point{X: opts.width, Y: opts.height}}
	switch format {
	case formatPNG:
		err = export.PNG(ctx, w, cp, st, eo)
	default:
		err = export.Text(w, cp, eo)
	}
	if err != nil {
		return fmt.Errorf("export %q/%q: %w", doc.Name, tab.Name, err)
	}
	if opts.output != "" {
		c.Logger.Info("exported", "document", doc.Name, "tab", tab.Name, "file", opts.output)
	}
	return nil
}

func exportFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
		if format != formatPNG {
			format = formatTXT
		}
	}
	switch format {
	case formatPNG, formatTXT:
		return format, nil
	}
	return "", fmt.Errorf("unknown format %q (want png or txt)", format)
}

// findDocument matches ref against ids first, then names.
func findDocument(idx store.Index, ref string) (store.DocumentEntry, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if d, ok := idx.Find(id); ok {
			return d, nil
		}
	}
	for _, d := range idx.Documents {
		if strings.EqualFold(d.Name, ref) {
			return d, nil
		}
	}
	return store.DocumentEntry{}, fmt.Errorf("document %q: %w", ref, store.ErrNotFound)
}

// findTab matches ref like findDocument; an empty ref picks the active tab.
func findTab(doc store.DocumentEntry, ref string) (store.TabEntry, error) {
	for _, t := range doc.Tabs {
		switch {
		case ref == "" && t.Active,
			ref != "" && t.ID.String() == ref,
			ref != "" && strings.EqualFold(t.Name, ref):
			return t, nil
		}
	}
	if ref == "" && len(doc.Tabs) > 0 {
		return doc.Tabs[0], nil
	}
	return store.TabEntry{}, fmt.Errorf("tab %q in %q: %w", ref, doc.Name, store.ErrNotFound)
}
