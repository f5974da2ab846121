package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clonetrack/internal/core"
)

type ingestFunc func(cmd *cobra.Command, project, name string) (core.IngestSummary, core.Result, error)

type templateFunc func(cmd *cobra.Command, project, name string) (string, error)

// templateCommand writes a stage template; --name overrides the default file name.
func templateCommand(short string, run templateFunc) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "template PROJECT",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := run(cmd, args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "workbook file name (default derived from the project)")
	return cmd
}

// ingestCommand reads a filled-in sheet; --name overrides the default file name.
func ingestCommand(use, short string, run ingestFunc) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   use + " PROJECT",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, res, err := run(cmd, args[0], name)
			if err != nil {
				return err
			}
			file := name
			if file == "" {
				file = args[0]
			}
			printIngest(cmd.OutOrStdout(), file, sum, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "workbook file name (default derived from the project)")
	return cmd
}

func newConstructsCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "constructs", Short: "Construct sheet"}
	var props []string
	tmpl := templateCommand("Write an empty construct sheet", func(cmd *cobra.Command, project, name string) (string, error) {
		return st.svc().GenerateConstructTemplate(cmd.Context(), project, name, core.ConstructTemplateOptions{Properties: props})
	})
	tmpl.Flags().StringSliceVar(&props, "property", nil, "extra property column (repeatable)")
	cmd.AddCommand(tmpl, ingestCommand("import", "Import constructs from the filled-in sheet", func(cmd *cobra.Command, project, name string) (core.IngestSummary, core.Result, error) {
		return st.svc().ImportConstructs(cmd.Context(), project, name)
	}))
	return cmd
}

func newTransformationCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "transformation", Short: "Transformation sheet"}
	cmd.AddCommand(
		templateCommand("Write the transformation sheet", func(cmd *cobra.Command, project, name string) (string, error) {
			return st.svc().GenerateTransformationTemplate(cmd.Context(), project, name)
		}),
		ingestCommand("ingest", "Create clones from transformation results", func(cmd *cobra.Command, project, name string) (core.IngestSummary, core.Result, error) {
			return st.svc().IngestTransformation(cmd.Context(), project, name)
		}),
	)
	return cmd
}

func screeningFlags(cmd *cobra.Command, opts *core.ScreeningOptions) {
	cmd.Flags().IntVar(&opts.MaxClones, "max", 0, "maximum clones per construct (0 keeps all)")
	cmd.Flags().BoolVar(&opts.UseMTP, "mtp", false, "assign a microtiter plate and well per row")
}

func newPCRCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "pcr", Short: "PCR screening"}
	var opts core.ScreeningOptions
	tmpl := templateCommand("Write the PCR screening sheet", func(cmd *cobra.Command, project, name string) (string, error) {
		return st.svc().GeneratePCRTemplate(cmd.Context(), project, name, opts)
	})
	screeningFlags(tmpl, &opts)
	cmd.AddCommand(
		tmpl,
		ingestCommand("ingest", "Record PCR results", func(cmd *cobra.Command, project, name string) (core.IngestSummary, core.Result, error) {
			return st.svc().IngestPCR(cmd.Context(), project, name)
		}),
		newMultiNACommand(st),
	)
	return cmd
}

// parsePlateFiles reads PLATE=FILE pairs.
func parsePlateFiles(pairs []string) (map[int]string, error) {
	out := make(map[int]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || v == "" {
			return nil, fmt.Errorf("expected PLATE=FILE, got %q", pair)
		}
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid plate number %q", k)
		}
		out[n] = v
	}
	return out, nil
}

func newMultiNACommand(st *state) *cobra.Command {
	var opts core.MultiNAOptions
	var data []string
	cmd := &cobra.Command{
		Use:   "multina PROJECT",
		Short: "Score the PCR sheet from MultiNA fragment exports",
		Long: `Match every row of the MTP PCR sheet against the MultiNA peaks of the
same plate and well, mark pcr_result true when a fragment lies within the
window around the construct's target length, and store the completed sheet
for "pcr ingest --name".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := parsePlateFiles(data)
			if err != nil {
				return err
			}
			opts.Data = files
			file, sum, err := st.svc().AnalyzeMultiNA(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s\n", file, sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Template, "template", "", "PCR sheet (default the project's PCR sheet)")
	cmd.Flags().StringVar(&opts.Targets, "targets", "", "sheet with construct and fragment_length columns")
	cmd.Flags().StringSliceVar(&data, "data", nil, "MultiNA export per plate as PLATE=FILE (repeatable)")
	cmd.Flags().StringVar(&opts.Result, "result", "", "result file name")
	cmd.Flags().Float64Var(&opts.Window, "window", 0, "accepted spread around the target length")
	_ = cmd.MarkFlagRequired("targets")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newSeqCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "seq", Short: "Sequencing screening", Aliases: []string{"sequencing"}}
	var opts core.SequencingOptions
	tmpl := templateCommand("Write the sequencing sheet for PCR-positive clones", func(cmd *cobra.Command, project, name string) (string, error) {
		return st.svc().GenerateSequencingTemplate(cmd.Context(), project, name, opts)
	})
	tmpl.Flags().IntVar(&opts.MaxClones, "max", 0, "maximum clones per construct (0 keeps all)")
	tmpl.Flags().BoolVar(&opts.AllClones, "all", false, "include clones without a positive PCR result")
	cmd.AddCommand(
		tmpl,
		ingestCommand("ingest", "Record sequencing results", func(cmd *cobra.Command, project, name string) (core.IngestSummary, core.Result, error) {
			return st.svc().IngestSequencing(cmd.Context(), project, name)
		}),
	)
	return cmd
}

func predicateFlags(cmd *cobra.Command, p *core.Predicates) {
	cmd.Flags().BoolVar(&p.PCR, "pcr", false, "require a positive PCR result")
	cmd.Flags().BoolVar(&p.Seq, "seq", false, "require a positive sequencing result")
	cmd.Flags().BoolVar(&p.Growth, "growth", false, "require a positive growth result")
}

func predicatesChanged(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("pcr") || cmd.Flags().Changed("seq") || cmd.Flags().Changed("growth")
}

// projectPredicates returns the flagged predicates, or the project kind's
// defaults when no predicate flag was given.
func projectPredicates(cmd *cobra.Command, st *state, project string, flagged core.Predicates) (core.Predicates, error) {
	if predicatesChanged(cmd) {
		return flagged, nil
	}
	p, err := lookupProject(st, project)
	if err != nil {
		return core.Predicates{}, err
	}
	return core.DefaultPredicates(p.Kind), nil
}

func newConjugationCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "conjugation", Short: "Conjugation sub-project of a primary project"}
	create := &cobra.Command{
		Use:   "create PARENT",
		Short: "Create the conjugation project of PARENT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, res, err := st.svc().CreateConjugationProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created project %s\n", p.Name)
			printViolations(cmd.OutOrStdout(), res)
			return nil
		},
	}

	opts := core.DefaultConjugationOptions()
	tmpl := templateCommand("Fill conjugation plates with validated clones of PARENT", func(cmd *cobra.Command, parent, name string) (string, error) {
		if !predicatesChanged(cmd) {
			opts.Predicates = core.DefaultConjugationOptions().Predicates
		}
		return st.svc().GenerateConjugationTemplate(cmd.Context(), parent, name, opts)
	})
	tmpl.Use = "template PARENT"
	tmpl.Flags().IntVar(&opts.Plates, "plates", 1, "number of 96-well plates to fill")
	predicateFlags(tmpl, &opts.Predicates)

	ingest := ingestCommand("ingest", "Create conjugation clones from the filled-in sheet", func(cmd *cobra.Command, parent, name string) (core.IngestSummary, core.Result, error) {
		return st.svc().IngestConjugation(cmd.Context(), parent, name)
	})
	ingest.Use = "ingest PARENT"

	cmd.AddCommand(create, tmpl, ingest)
	return cmd
}

func newGrowthCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "growth", Short: "Growth experiments on conjugation clones"}
	var opts core.ScreeningOptions
	tmpl := templateCommand("Write the growth experiment sheet", func(cmd *cobra.Command, project, name string) (string, error) {
		return st.svc().GenerateGrowthTemplate(cmd.Context(), project, name, opts)
	})
	screeningFlags(tmpl, &opts)
	cmd.AddCommand(
		tmpl,
		ingestCommand("ingest", "Record growth results", func(cmd *cobra.Command, project, name string) (core.IngestSummary, core.Result, error) {
			return st.svc().IngestGrowth(cmd.Context(), project, name)
		}),
	)
	return cmd
}
