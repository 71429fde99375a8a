package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cnab-dev/cnab/internal/detect"
	"github.com/cnab-dev/cnab/internal/model"
)

func newFixCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "fix <file>",
		Short: "Pad or cut every line to the format's width",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := model.ParseFormat(format)
			if !ok {
				return fmt.Errorf("unknown format %q (want 240 or 400)", format)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			content, err := detect.Normalize(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fixed, changed, err := detect.FixWidth(content, f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if output == "" {
				output = args[0]
			}
			if err := os.WriteFile(output, []byte(fixed), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d lines adjusted, written to %s\n", changed, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "240", "target format (240 or 400)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")

	return cmd
}
