package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/rdf-canon/rdf"
)

func (c *CLI) compareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a.nq> <b.nq>",
		Short: "Report whether two datasets are isomorphic",
		Long:  `compare canonicalizes both datasets and exits with status 1 when their canonical forms differ.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			opts, err := c.config.canonOptions(logger)
			if err != nil {
				return err
			}
			a, err := readQuads(cmd, args[0])
			if err != nil {
				return err
			}
			b, err := readQuads(cmd, args[1])
			if err != nil {
				return err
			}
			same, err := rdf.Isomorphic(ctx, a, b, opts...)
			if err != nil {
				return err
			}
			if !same {
				fmt.Fprintln(cmd.OutOrStdout(), "different")
				return ErrNotIsomorphic
			}
			fmt.Fprintln(cmd.OutOrStdout(), "isomorphic")
			return nil
		},
	}
}
