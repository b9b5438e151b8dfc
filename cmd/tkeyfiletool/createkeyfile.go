package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sectoken/tkeyfile/pkcs11session"
)

var createKeyfileCmd = &cobra.Command{
	Use:   "create-keyfile <slot> <label> <source-file>",
	Short: "Store a file's contents as a new token data object",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var slot uint
		if _, err := fmt.Sscanf(args[0], "%d", &slot); err != nil {
			return fmt.Errorf("invalid slot %q: %w", args[0], err)
		}
		label, sourcePath := args[1], args[2]

		data, err := os.ReadFile(sourcePath)
		if err != nil {
			return err
		}

		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		kf, err := mgr.CreateKeyfile(pkcs11session.SlotId(slot), label, data)
		if err != nil {
			return err
		}
		fmt.Printf("created token://slot/%d/file/%s\n", kf.SlotId, kf.Id)
		return nil
	},
}
