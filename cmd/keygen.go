package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/frahmantamala/agency-dashboard/internal/cryptobox"
	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new encryption key and cron key",
	Long:  `Print a fresh 32-byte hex encryption key and a random cron key for the security section of the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		encKey, err := cryptobox.GenerateKey()
		if err != nil {
			return err
		}

		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return fmt.Errorf("generate cron key: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "APP_ENC_KEY=%s\n", encKey)
		fmt.Fprintf(cmd.OutOrStdout(), "CRON_KEY=%s\n", hex.EncodeToString(raw))
		return nil
	},
}
