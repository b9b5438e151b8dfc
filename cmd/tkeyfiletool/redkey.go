package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sectoken/tkeyfile/keyfile"
)

var redkeyCmd = &cobra.Command{
	Use:   "redkey <slot:id> <bluekey-file> <output-file>",
	Short: "Decrypt the leading segment of a bluekey back to plaintext",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenDescriptor, bluekeyPath, outputPath := args[0], args[1], args[2]

		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		if err := keyfile.RevealRedkey(mgr, outputPath, bluekeyPath, tokenDescriptor); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outputPath)
		return nil
	},
}
