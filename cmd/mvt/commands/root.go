package commands

import (
	"fmt"
	"os"

	"mergevault/pkg/app"
	"mergevault/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// 全局应用实例，供子命令使用
	MV *app.App
)

var rootCmd = &cobra.Command{
	Use:   "mvt",
	Short: "MergeVault: a mergeable, branchable, content-addressed KV store",
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init 命令就是去创建环境的，跳过依赖检查
		if cmd.Name() == "init" {
			return nil
		}

		var err error
		MV, err = app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize mergevault: %w\n(Did you run 'mvt init'?)", err)
		}
		return nil
	},
}

// Execute 是入口
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// 在初始化时，加载配置
	cobra.OnInitialize(initConfig)

	// 1. 全局参数 --config
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mvt/config.yaml)")

	// 2. storage.path 既可以在 yaml 里写，也可以用 flag 覆盖
	rootCmd.PersistentFlags().String("storage-path", "", "Directory to store objects")
	if err := viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("storage-path")); err != nil {
		fmt.Println("Failed to bind flag:", err)
		os.Exit(1)
	}
}

func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}
}

// author 从配置里取提交者身份
func author() string {
	return viper.GetString("author")
}
