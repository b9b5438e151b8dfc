package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List token slots and their capability flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		tokens, err := mgr.Tokens()
		if err != nil {
			return err
		}
		for _, t := range tokens {
			fmt.Printf("slot %d: %q login-required=%v protected-auth-path=%v write-protected=%v\n",
				t.SlotId, t.Label, t.LoginRequired, t.ProtectedAuthPath, t.WriteProtected)
		}
		return nil
	},
}
