package commands

import (
	"fmt"

	"mergevault/pkg/core"

	"github.com/spf13/cobra"
)

var rmMsg string

var rmCmd = &cobra.Command{
	Use:   "rm <branch> <path>",
	Short: "Remove the value at a path on a branch (creates a commit)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		branch, path := args[0], args[1]

		msg := rmMsg
		if msg == "" {
			msg = fmt.Sprintf("remove %s", path)
		}

		hash, err := MV.Vault.Remove(cmd.Context(), branch, path, core.Info{
			Author:  author(),
			Message: msg,
		})
		if err != nil {
			return err
		}

		fmt.Printf("[%s] %s\n", branch, hash)
		return nil
	},
}

func init() {
	rmCmd.Flags().StringVarP(&rmMsg, "message", "m", "", "Commit message")
	rootCmd.AddCommand(rmCmd)
}
