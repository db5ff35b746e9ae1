package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"mediashelf/internal/core"
)

var flagPage int

var searchCmd = &cobra.Command{
	Use:   "search <movie|tv|book> <query>",
	Short: "Search a catalog and print the normalized results as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeDB, err := openManager(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		result, err := manager.Search(cmd.Context(), args[0], args[1], flagPage)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <movie|tv|book> <id>",
	Short: "Fetch one catalog item and print it as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeDB, err := openManager(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		item, err := manager.GetDetails(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), item)
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagPage, "page", 1, "Result page, starting at 1")
}

func openManager(cmd *cobra.Command) (*core.Manager, func(), error) {
	db, err := openDatabase(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	manager, err := core.NewManager(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return manager, func() { db.Close() }, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
