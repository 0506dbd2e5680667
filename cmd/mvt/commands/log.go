package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log <branch>",
	Short: "Show the commit history of a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commits, err := MV.Vault.Log(cmd.Context(), args[0], logLimit)
		if err != nil {
			return err
		}

		for _, c := range commits {
			fmt.Printf("commit %s\n", c.ID())
			if len(c.Parents) > 1 {
				fmt.Print("Merge:")
				for _, p := range c.Parents {
					fmt.Printf(" %s", p.Hash[:12])
				}
				fmt.Println()
			}
			fmt.Printf("Author: %s\n", c.Author)
			fmt.Printf("Date:   %s\n", time.Unix(c.Timestamp, 0).Format(time.RFC3339))
			fmt.Printf("\n    %s\n\n", c.Message)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Maximum number of commits to show")
	rootCmd.AddCommand(logCmd)
}
