package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/rdf-canon/rdf"
)

func (c *CLI) canonicalizeCommand() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:     "canonicalize [file|-]",
		Aliases: []string{"c14n"},
		Short:   "Print the canonical N-Quads of a dataset",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			opts, err := c.config.canonOptions(logger)
			if err != nil {
				return err
			}
			opts = append(opts, rdf.OptFormat(format))
			if _, err := rdf.ResolveCanonOptions(opts...); err != nil {
				return err
			}

			quads, err := readQuads(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			prog := newProgress(logger)
			result, err := rdf.Canonicalize(ctx, quads, opts...)
			if err != nil {
				return err
			}
			logger.Debug("canonicalized", "quads", len(quads), "blank_nodes", len(result.IssuedIDs), "steps", result.Steps)

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			if _, err := io.WriteString(w, result.String()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if output != "" && output != "-" {
				prog.done("wrote canonical dataset", "path", output, "quads", len(quads))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", rdf.FormatNQuads, "output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}
