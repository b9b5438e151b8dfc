package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sectoken/tkeyfile/keyfile"
)

var bluekeyCmd = &cobra.Command{
	Use:   "bluekey <slot:id> <plaintext-file> <output-file>",
	Short: "Encrypt the leading segment of a keyfile under a token RSA key",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenDescriptor, plaintextPath, outputPath := args[0], args[1], args[2]

		plaintext, err := os.ReadFile(plaintextPath)
		if err != nil {
			return err
		}

		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		if err := keyfile.CreateBluekey(mgr, outputPath, tokenDescriptor, plaintext); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outputPath)
		return nil
	},
}
