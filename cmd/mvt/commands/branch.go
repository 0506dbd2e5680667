package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "List, create, or delete branches",
	RunE: func(cmd *cobra.Command, args []string) error {
		heads, err := MV.Vault.Refs().List(cmd.Context())
		if err != nil {
			return err
		}

		names := make([]string, 0, len(heads))
		for name := range heads {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		for _, name := range names {
			fmt.Fprintf(tw, "%s\t%s\n", name, heads[name][:12])
		}
		return tw.Flush()
	},
}

var branchCloneCmd = &cobra.Command{
	Use:   "clone <src> <dst>",
	Short: "Create a new branch pointing at src's current head",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := MV.Vault.Clone(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Branch %q created from %q\n", args[1], args[0])
		return nil
	},
}

var branchDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a branch (its commits stay until unreachable)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := MV.Vault.Refs().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Branch %q deleted\n", args[0])
		return nil
	},
}

func init() {
	branchCmd.AddCommand(branchCloneCmd)
	branchCmd.AddCommand(branchDeleteCmd)
	rootCmd.AddCommand(branchCmd)
}
