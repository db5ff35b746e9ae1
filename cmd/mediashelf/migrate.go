package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediashelf/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the library database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		versions, err := database.Migrations()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema %s\n", cfg.Database.Path, versions[len(versions)-1])
		return nil
	},
}
