package commands

import (
	"fmt"

	"mergevault/pkg/content"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <branch> <path>",
	Short: "Read the value at a path on a branch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, typeName, err := MV.Vault.Read(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		switch v := value.(type) {
		case content.Counter:
			if v.Unit != "" {
				fmt.Printf("%d %s\n", v.Value, v.Unit)
			} else {
				fmt.Println(v.Value)
			}
		case []byte:
			fmt.Println(string(v))
		default:
			fmt.Printf("(%s) %v\n", typeName, v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
}
