package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clonetrack/internal/core"
)

func printViolations(w io.Writer, res core.Result) {
	for _, v := range res.Violations {
		fmt.Fprintf(w, "%s: %s %s %s: %s\n", v.Severity, v.Rule, v.Entity, v.EntityID, v.Message)
	}
}

func printIngest(w io.Writer, file string, sum core.IngestSummary, res core.Result) {
	fmt.Fprintf(w, "%s: %d created, %d updated, %d unchanged, %d duplicates skipped\n",
		file, sum.Created, sum.Updated, sum.Unchanged, sum.Duplicates)
	printViolations(w, res)
}

func newProjectCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Short:   "Create, list and delete projects",
		Aliases: []string{"projects"},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create an empty project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, res, err := st.svc().CreateProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created project %s\n", p.Name)
				printViolations(cmd.OutOrStdout(), res)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List projects with construct and clone counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				out := cmd.OutOrStdout()
				for _, p := range st.svc().ListProjects() {
					fmt.Fprintf(out, "%s\t%s\t%d constructs\t%d clones", p.Name, p.Kind, len(p.Constructs()), p.CloneCount())
					if p.Parent != "" {
						fmt.Fprintf(out, "\tparent %s", p.Parent)
					}
					fmt.Fprintln(out)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:     "delete NAME",
			Short:   "Delete a project",
			Aliases: []string{"rm"},
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := st.svc().DeleteProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted project %s\n", args[0])
				printViolations(cmd.OutOrStdout(), res)
				return nil
			},
		},
	)
	return cmd
}
