package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cnab-dev/cnab/internal/config"
	"github.com/cnab-dev/cnab/internal/model"
	"github.com/cnab-dev/cnab/internal/schema"
	"github.com/cnab-dev/cnab/internal/schema/builtin"
)

func newSchemasCommand(flags *globalFlags) *cobra.Command {
	var subType string

	cmd := &cobra.Command{
		Use:   "schemas <format> <bank> [record-type]",
		Short: "List layouts or show the resolved schema of a record type",
		Long: "Without a record type, list the layouts available for the bank.\n" +
			"With one, print the schema the parser would use, falling back to the\n" +
			"generic layout when the bank has none.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, ok := model.ParseFormat(args[0])
			if !ok {
				return fmt.Errorf("unknown format %q (want 240 or 400)", args[0])
			}
			ws, err := openWorkspace(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 2 {
				return listSchemas(out, ws, string(format), args[1])
			}

			s, err := ws.loader().Load(args[1], string(format), args[2], subType)
			if err != nil {
				return err
			}
			printSchema(out, s)
			return nil
		},
	}

	cmd.Flags().StringVar(&subType, "sub-type", "", "layout variant directory")

	return cmd
}

func listSchemas(w io.Writer, ws *workspace, format, bank string) error {
	seen := map[string]string{}
	add := func(names []string, origin string) {
		for _, n := range names {
			if _, ok := seen[n]; !ok {
				seen[n] = origin
			}
		}
	}

	if dir := config.Resolve(ws.dir, ws.cfg.Schemas.Dir); dir != "" {
		if names, err := schema.List(os.DirFS(dir), format, bank); err == nil {
			add(names, bank)
		}
	}
	names, err := schema.List(builtin.FS, format, schema.GenericBank)
	if err != nil {
		return err
	}
	add(names, schema.GenericBank)

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s (%s)\n", k, seen[k])
	}
	return nil
}

func printSchema(w io.Writer, s *schema.Schema) {
	meta := s.Metadata()
	fmt.Fprintf(w, "source: %s\n", meta.Source)
	if meta.Fallback() {
		fmt.Fprintf(w, "bank %s has no layout, using %s\n", meta.RequestedBank, meta.ResolvedBank)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tSTART\tEND\tPICTURE\tREQUIRED\tVALUES")
	for _, f := range s.Fields() {
		req := ""
		if f.Required {
			req = "yes"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			f.Name, f.Start(), f.End(), f.Picture, req, strings.Join(f.ValidValues, ","))
	}
	tw.Flush()
}
