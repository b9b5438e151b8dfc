package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sectoken/tkeyfile/pkcs11session"
)

var keysSlot int

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List RSA private keys usable for keyfile decrypt/encrypt",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		var slotFilter *pkcs11session.SlotId
		if cmd.Flags().Changed("slot") {
			s := pkcs11session.SlotId(keysSlot)
			slotFilter = &s
		}

		keys, err := mgr.GetAvailableKeys(slotFilter, "")
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Printf("%d:%s  max-encrypt=%d  max-decrypt=%d\n", k.SlotId, k.Id, k.MaxEncryptBufferSize, k.MaxDecryptBufferSize)
		}
		return nil
	},
}

func init() {
	keysCmd.Flags().IntVar(&keysSlot, "slot", 0, "restrict listing to one slot")
}
