package cli

import (
	"github.com/spf13/cobra"

	"velo/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve saved documents over HTTP (read-only)",
		Long: `Serve exposes the document index, tab checkpoints as JSON, tab renders as PNG and pasted images.

  GET /documents
  GET /documents/{doc}
  GET /documents/{doc}/tabs/{tab}
  GET /documents/{doc}/tabs/{tab}.png
  GET /images/{id}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			return server.New(st, c.Logger).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
