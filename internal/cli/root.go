// Package cli is the clonetrack command tree. Each command maps onto one
// core.Service operation.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clonetrack/internal/config"
	"clonetrack/internal/core"
)

// Version is reported by --version.
var Version = "0.1.0"

type state struct {
	configFile string
	app        *app
}

func (s *state) svc() *core.Service { return s.app.svc }

func (s *state) close() error {
	if s.app == nil {
		return nil
	}
	return s.app.Close()
}

// NewRootCommand assembles the command tree. The service is built lazily
// before each command runs, from --config, CLONETRACK_* variables and flags.
func NewRootCommand() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *state) {
	st := &state{}
	root := &cobra.Command{
		Use:   "clonetrack",
		Short: "Track constructs and clones through a cloning workflow",
		Long: `clonetrack follows constructs and the clones derived from them through
transformation, PCR and sequencing screening, conjugation, growth tests and
long-term storage. Each stage writes a template sheet for the bench and
ingests the filled-in sheet back into the project.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(st.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st.app = a
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&st.configFile, "config", "", "config file (default ./clonetrack.yaml when present)")
	f.String("storage", "", "workspace backend: memory, sqlite or postgres")
	f.String("db", "", "sqlite workspace file")
	f.String("postgres-dsn", "", "postgres connection string")
	f.String("blob", "", "workbook backend: fs, s3 or memory")
	f.String("workbook-dir", "", "workbook directory for the fs backend")
	f.String("format", "", "format of new sheets: xlsx or csv")
	f.String("log-level", "", "debug, info, warn or error")
	f.String("log-format", "", "text or json")
	f.String("audit-file", "", "append JSON audit entries to this file")
	f.String("trace-file", "", "append JSON trace spans to this file")
	f.Uint64("sampling-seed", 0, "seed for validated-clone sampling (0 picks one at random)")

	root.AddCommand(
		newProjectCommand(st),
		newConstructsCommand(st),
		newTransformationCommand(st),
		newPCRCommand(st),
		newSeqCommand(st),
		newConjugationCommand(st),
		newGrowthCommand(st),
		newValidatedCommand(st),
		newStoreCommand(st),
		newExportCommand(st),
		newDagCommand(st),
		newPlatemapCommand(st),
		newMetricsCommand(st),
		newWorkbookCommand(st),
	)
	root.PersistentPostRunE = func(*cobra.Command, []string) error {
		return st.close()
	}
	return root, st
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, st := newRootCommand()
	defer func() { _ = st.close() }()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
