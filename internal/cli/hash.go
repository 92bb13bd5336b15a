package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/rdf-canon/rdf"
)

func (c *CLI) hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [file|-]",
		Short: "Print the SHA-256 fingerprint of a dataset's canonical form",
		Long:  `hash prints the hex SHA-256 of the canonical N-Quads, a fingerprint that is equal for isomorphic datasets.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.config.canonOptions(loggerFromContext(ctx))
			if err != nil {
				return err
			}
			quads, err := readQuads(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			result, err := rdf.Canonicalize(ctx, quads, opts...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Hash())
			return err
		},
	}
}
