package commands

import (
	"fmt"
	"os"

	"mergevault/pkg/app"
	"mergevault/pkg/core"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initBranch string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new repository with an empty root commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 先把 .mvt 目录建出来，App 工厂才有环境可用
		if err := os.MkdirAll(".mvt", 0755); err != nil {
			return err
		}
		if viper.GetString("storage.backend") == "disk" {
			if err := os.MkdirAll(viper.GetString("storage.path"), 0755); err != nil {
				return err
			}
		}

		a, err := app.NewApp(cmd.Context())
		if err != nil {
			return err
		}
		MV = a

		hash, err := MV.Vault.Init(cmd.Context(), initBranch, core.Info{
			Author:  author(),
			Message: "initial commit",
		})
		if err != nil {
			return err
		}

		fmt.Printf("Initialized branch %q at %s\n", initBranch, hash)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initBranch, "branch", "b", "main", "Name of the initial branch")
	rootCmd.AddCommand(initCmd)
}
