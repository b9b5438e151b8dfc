package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sectoken/tkeyfile/pkcs11session"
)

var keyfilesSlot int

var keyfilesCmd = &cobra.Command{
	Use:   "keyfiles",
	Short: "List data objects usable as token-backed keyfiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		var slotFilter *pkcs11session.SlotId
		if cmd.Flags().Changed("slot") {
			s := pkcs11session.SlotId(keyfilesSlot)
			slotFilter = &s
		}

		keyfiles, err := mgr.GetAvailableKeyfiles(slotFilter, "")
		if err != nil {
			return err
		}
		for _, kf := range keyfiles {
			fmt.Printf("token://slot/%d/file/%s\n", kf.SlotId, kf.Id)
		}
		return nil
	},
}

func init() {
	keyfilesCmd.Flags().IntVar(&keyfilesSlot, "slot", 0, "restrict listing to one slot")
}
