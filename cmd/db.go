package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var CreateDBCmd = &cobra.Command{
	Use:   "create-db <name>",
	Short: "Create a database on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		return c.CreateDB(cmd.Context(), args[0])
	},
}

var DropDBCmd = &cobra.Command{
	Use:   "drop-db <name>",
	Short: "Delete a database and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		return c.DropDB(cmd.Context(), args[0])
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the databases on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		names, err := c.ListDB(cmd.Context())
		if err != nil {
			return err
		}

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}
