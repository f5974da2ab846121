package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"clonetrack/internal/core"
	"clonetrack/internal/render/dag"
	"clonetrack/internal/render/platemap"
	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

func newValidatedCommand(st *state) *cobra.Command {
	var preds core.Predicates
	var sample int
	var out string
	cmd := &cobra.Command{
		Use:   "validated PROJECT",
		Short: "List clones passing the selected stages",
		Long: `Print the flattened rows of clones whose requested stage results are all
positive, as CSV. Without --pcr, --seq or --growth, primary projects require
PCR and sequencing and conjugation projects require growth. With --sample,
every construct contributes exactly that many clones drawn at random; a
construct with fewer passing clones is an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := projectPredicates(cmd, st, args[0], preds)
			if err != nil {
				return err
			}
			t, err := st.svc().Validated(cmd.Context(), args[0], selected, sample)
			if err != nil {
				return err
			}
			if out != "" {
				data, err := tabular.Marshal(formatFor(st, out), t)
				if err != nil {
					return err
				}
				if err := st.svc().PutWorkbook(cmd.Context(), out, data, false); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d clones)\n", out, t.Len())
				return nil
			}
			data, err := tabular.Marshal(tabular.FormatCSV, t)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	predicateFlags(cmd, &preds)
	cmd.Flags().IntVar(&sample, "sample", 0, "clones drawn per construct (0 keeps all)")
	cmd.Flags().StringVar(&out, "out", "", "store the rows in the workbook under this name instead of printing")
	return cmd
}

func formatFor(st *state, name string) tabular.Format {
	if f, ok := tabular.FormatFromName(name); ok {
		return f
	}
	return st.app.cfg.Format()
}

func newStoreCommand(st *state) *cobra.Command {
	var preds core.Predicates
	var maxPerConstruct int
	cmd := &cobra.Command{
		Use:   "store PROJECT",
		Short: "Assign storage wells to validated clones",
		Long: `Assign column-major storage wells to the clones passing the selected stages.
Without --pcr, --seq or --growth, primary projects require PCR and sequencing
and conjugation projects require growth.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := projectPredicates(cmd, st, args[0], preds)
			if err != nil {
				return err
			}
			sum, res, err := st.svc().StoreClones(cmd.Context(), args[0], selected, maxPerConstruct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d clones stored on %d plates\n", args[0], sum.Stored, sum.Plates)
			printViolations(cmd.OutOrStdout(), res)
			return nil
		},
	}
	predicateFlags(cmd, &preds)
	cmd.Flags().IntVar(&maxPerConstruct, "max", 0, "maximum clones stored per construct (0 keeps all)")
	return cmd
}

func newExportCommand(st *state) *cobra.Command {
	var name string
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "export PROJECT",
		Short: "Write the flattened project, or its YAML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			var err error
			if asYAML {
				file, err = st.svc().ExportSnapshot(cmd.Context(), args[0], name)
			} else {
				file, err = st.svc().Export(cmd.Context(), args[0], name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "file name (default the project name)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "write the nested YAML snapshot instead of the flat sheet")
	return cmd
}

func lookupProject(st *state, name string) (*core.Project, error) {
	p, ok := st.svc().GetProject(name)
	if !ok {
		return nil, domain.NotFoundError{Entity: core.EntityProject, ID: name}
	}
	return p, nil
}

func newDagCommand(st *state) *cobra.Command {
	var opts dag.Options
	var name string
	cmd := &cobra.Command{
		Use:   "dag PROJECT",
		Short: "Print the project graph in Graphviz DOT",
		Long: `Print properties, constructs and stored clones as a left-to-right DOT
digraph. Clones with a storage well and everything leading to them are
highlighted. With --name the graph is stored in the workbook instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := lookupProject(st, args[0])
			if err != nil {
				return err
			}
			var parent *core.Project
			if p.Parent != "" {
				parent, _ = st.svc().GetProject(p.Parent)
			}
			text := dag.Render(p, parent, opts).String()
			if name == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}
			if _, err := st.svc().Workbook().WriteRaw(cmd.Context(), name, "text/vnd.graphviz", []byte(text)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.Properties, "property", nil, "construct property drawn as a node (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Constructs, "construct", nil, "restrict to these constructs (repeatable)")
	cmd.Flags().BoolVar(&opts.NoHighlight, "no-highlight", false, "draw every node plainly")
	cmd.Flags().StringVar(&name, "name", "", "store the DOT file in the workbook under this name")
	return cmd
}

func newPlatemapCommand(st *state) *cobra.Command {
	var stage string
	var plateNumber int
	cmd := &cobra.Command{
		Use:   "platemap PROJECT",
		Short: "Draw the wells of storage or conjugation plates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := lookupProject(st, args[0])
			if err != nil {
				return err
			}
			s := domain.Stage(stage)
			plates := []int{plateNumber}
			if plateNumber == 0 {
				if plates, err = platemap.Plates(p, s); err != nil {
					return err
				}
			}
			if len(plates) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no clones placed at stage %s\n", p.Name, s)
				return nil
			}
			for _, n := range plates {
				out, err := platemap.Render(p, s, n)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", string(domain.StageStorage), "storage, conjugation or transformation")
	cmd.Flags().IntVar(&plateNumber, "plate", 0, "plate number (0 draws every plate)")
	return cmd
}

func newMetricsCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print workspace gauges in the Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec := st.app.metrics
			if err := rec.Registry().Register(core.NewWorkspaceCollector(st.svc().Store())); err != nil {
				return fmt.Errorf("register workspace collector: %w", err)
			}
			return rec.WriteText(cmd.OutOrStdout())
		},
	}
}
