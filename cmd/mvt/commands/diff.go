package commands

import (
	"fmt"

	"mergevault/pkg/tree"
	"mergevault/pkg/types"

	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <commit-a> <commit-b>",
	Short: "Show path-level changes between two commits",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b := types.Hash(args[0]), types.Hash(args[1])

		count := 0
		err := MV.Vault.Diff(cmd.Context(), a, b, func(path types.Path, ch tree.Change) error {
			count++
			switch ch.Type {
			case tree.Added:
				fmt.Printf("A  %s\n", path)
			case tree.Removed:
				fmt.Printf("D  %s\n", path)
			case tree.Modified:
				fmt.Printf("M  %s\n", path)
			}
			return nil
		})
		if err != nil {
			return err
		}

		if count == 0 {
			fmt.Println("No changes")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
