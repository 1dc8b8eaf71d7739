package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/matst80/slask-instant/pkg/auth"
	"github.com/spf13/cobra"
)

var (
	keySecret  string
	keySubject string
	keyIndexes []string
	keyTTL     time.Duration
	keyWrite   bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create an api key for the search server",
	Long: `Creates a signed api key. Without --index the key allows every index.
Only keys created with --write are accepted by /changes.
The secret defaults to the AUTH_SECRET environment variable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := keySecret
		if secret == "" {
			secret = os.Getenv("AUTH_SECRET")
		}
		if secret == "" {
			return errors.New("no secret, use --secret or AUTH_SECRET")
		}
		keys := auth.NewKeys(secret)
		create := keys.Create
		if keyWrite {
			create = keys.CreateWriteKey
		}
		key, err := create(keySubject, keyIndexes, keyTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keySecret, "secret", "", "signing secret")
	keygenCmd.Flags().StringVar(&keySubject, "subject", "demo", "key subject")
	keygenCmd.Flags().StringSliceVar(&keyIndexes, "index", nil, "allowed index, repeatable")
	keygenCmd.Flags().DurationVar(&keyTTL, "ttl", 0, "key lifetime, 0 never expires")
	keygenCmd.Flags().BoolVar(&keyWrite, "write", false, "allow posting record changes")
	rootCmd.AddCommand(keygenCmd)
}
