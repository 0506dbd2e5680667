package commands

import (
	"errors"
	"fmt"

	"mergevault/pkg/core"
	"mergevault/pkg/vault"

	"github.com/spf13/cobra"
)

var mergeMsg string

var mergeCmd = &cobra.Command{
	Use:   "merge <into> <from>",
	Short: "Merge branch <from> into branch <into>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		into, from := args[0], args[1]

		msg := mergeMsg
		if msg == "" {
			msg = fmt.Sprintf("merge %s into %s", from, into)
		}

		hash, err := MV.Vault.MergeInto(cmd.Context(), into, from, core.Info{
			Author:  author(),
			Message: msg,
		})

		// 冲突要完整展示给用户，一条不少
		var conflictErr *vault.ConflictError
		if errors.As(err, &conflictErr) {
			fmt.Printf("Merge failed: %d conflict(s)\n", len(conflictErr.Conflicts))
			for _, c := range conflictErr.Conflicts {
				fmt.Printf("  %s\n    reason: %s\n", c.Path, c.Reason)
				if !c.Ours.IsZero() {
					fmt.Printf("    ours:   %s\n", c.Ours[:12])
				}
				if !c.Theirs.IsZero() {
					fmt.Printf("    theirs: %s\n", c.Theirs[:12])
				}
			}
			return err
		}
		if err != nil {
			return err
		}

		fmt.Printf("[%s] %s\n", into, hash)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeMsg, "message", "m", "", "Merge commit message")
	rootCmd.AddCommand(mergeCmd)
}
