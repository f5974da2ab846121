package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newWorkbookCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workbook",
		Short:   "Move sheets between the workbook store and local files",
		Aliases: []string{"wb"},
	}

	var as string
	var replace bool
	put := &cobra.Command{
		Use:   "put FILE",
		Short: "Upload a filled-in sheet",
		Long: `Upload a local file into the workbook store. Stored sheets are write-once;
pass --replace to overwrite a template with its filled-in copy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := as
			if name == "" {
				name = filepath.Base(args[0])
			}
			if err := st.svc().PutWorkbook(cmd.Context(), name, data, replace); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%d bytes)\n", name, len(data))
			return nil
		},
	}
	put.Flags().StringVar(&as, "as", "", "stored name (default the file's base name)")
	put.Flags().BoolVar(&replace, "replace", false, "overwrite an existing sheet")

	var dest string
	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Download a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, rc, err := st.svc().Workbook().Store().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()
			if dest == "-" {
				_, err = io.Copy(cmd.OutOrStdout(), rc)
				return err
			}
			target := dest
			if target == "" {
				target = args[0]
			}
			f, err := os.Create(target)
			if err != nil {
				return err
			}
			n, err := io.Copy(f, rc)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", target, n)
			return nil
		},
	}
	get.Flags().StringVarP(&dest, "out", "o", "", "local path, or - for stdout (default NAME)")

	var prefix string
	ls := &cobra.Command{
		Use:     "ls",
		Short:   "List stored sheets",
		Aliases: []string{"list"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := st.svc().Workbook().List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	ls.Flags().StringVar(&prefix, "prefix", "", "only names starting with this prefix")

	rm := &cobra.Command{
		Use:   "rm NAME",
		Short: "Delete a stored sheet so it can be regenerated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := st.svc().RemoveWorkbook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(put, get, ls, rm)
	return cmd
}
