package commands

import (
	"errors"
	"fmt"
	"strconv"

	"mergevault/pkg/content"
	"mergevault/pkg/core"
	"mergevault/pkg/refs"

	"github.com/spf13/cobra"
)

var (
	writeType string
	writeMsg  string
)

var writeCmd = &cobra.Command{
	Use:   "write <branch> <path> <value>",
	Short: "Write a value to a path on a branch (creates a commit)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		branch, path, raw := args[0], args[1], args[2]

		// 按内容类型解析命令行参数
		var value any
		switch writeType {
		case "counter":
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("counter value must be an integer: %w", err)
			}
			value = content.Counter{Value: n}
		case "bytes":
			value = []byte(raw)
		default:
			return fmt.Errorf("unsupported content type for CLI write: %q", writeType)
		}

		msg := writeMsg
		if msg == "" {
			msg = fmt.Sprintf("write %s", path)
		}

		hash, err := MV.Vault.Write(cmd.Context(), branch, path, writeType, value, core.Info{
			Author:  author(),
			Message: msg,
		})
		if errors.Is(err, refs.ErrStaleHead) {
			return fmt.Errorf("branch %q was updated concurrently, retry your write: %w", branch, err)
		}
		if err != nil {
			return err
		}

		fmt.Printf("[%s] %s\n", branch, hash)
		return nil
	},
}

func init() {
	writeCmd.Flags().StringVarP(&writeType, "type", "t", "counter", "Content type of the value (counter|bytes)")
	writeCmd.Flags().StringVarP(&writeMsg, "message", "m", "", "Commit message")
	rootCmd.AddCommand(writeCmd)
}
