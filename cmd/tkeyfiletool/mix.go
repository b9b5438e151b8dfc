package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sectoken/tkeyfile/keyfile"
	"github.com/sectoken/tkeyfile/pkcs11session"
)

var mixTokenDescriptor string
var mixPassword string

var mixCmd = &cobra.Command{
	Use:   "mix <keyfile> [keyfile...]",
	Short: "Mix a list of keyfiles into a password pool and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var mgr *pkcs11session.Manager
		if mixTokenDescriptor != "" {
			var err error
			mgr, err = openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()
		}

		result, err := keyfile.ApplyListToPassword(mgr, args, []byte(mixPassword), mixTokenDescriptor)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(result))
		return nil
	},
}

func init() {
	mixCmd.Flags().StringVar(&mixTokenDescriptor, "token-key", "", "slot:id descriptor of the token key backing any encrypted keyfile in the list")
	mixCmd.Flags().StringVar(&mixPassword, "password", "", "existing password to seed the pool with")
}
