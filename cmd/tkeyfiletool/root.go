package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	libraryPath string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "tkeyfiletool",
	Short: "Inspect and mix PKCS#11-backed keyfiles into a password pool",
	Long: `tkeyfiletool operates the token-assisted keyfile subsystem directly:
listing slots and token objects, creating and revealing bluekeys, and
mixing keyfile lists into a password pool the way a volume's
key-derivation step would.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&libraryPath, "pkcs11-module", os.Getenv("TKEYFILE_PKCS11_MODULE"), "path to the PKCS#11 shared library")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(slotsCmd, keysCmd, keyfilesCmd, createKeyfileCmd, bluekeyCmd, redkeyCmd, mixCmd)
}

func requireLibraryPath() error {
	if libraryPath == "" {
		return fmt.Errorf("no PKCS#11 module configured: pass --pkcs11-module or set TKEYFILE_PKCS11_MODULE")
	}
	return nil
}
