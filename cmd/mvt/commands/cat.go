package commands

import (
	"fmt"
	"io"
	"os"

	"mergevault/pkg/printer"
	"mergevault/pkg/types"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <hash>",
	Short: "Inspect a raw object in the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash := types.Hash(args[0])
		if !hash.IsValid() {
			return fmt.Errorf("invalid hash: %q", args[0])
		}

		reader, err := MV.Store.Get(cmd.Context(), hash)
		if err != nil {
			return err
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			return err
		}

		structured, err := printer.PrintStructure(data, os.Stdout)
		if err != nil {
			return err
		}
		if !structured {
			// Chunk (原始数据)，避免往终端喷二进制
			fmt.Printf("Type: Chunk (Raw Data)\nSize: %d bytes\n", len(data))
			fmt.Println("(Raw binary data not shown)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
