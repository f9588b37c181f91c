package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smoldb/smoldb-go/client"
)

var ReadCmd = &cobra.Command{
	Use:   "read <db> <location>",
	Short: "Read the record at a location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		value, err := c.Read(cmd.Context(), client.Locator{Name: args[0], Location: args[1]})
		if err != nil {
			return err
		}

		fmt.Println(string(value))
		return nil
	},
}

var WriteCmd = &cobra.Command{
	Use:   "write <db> <location> <data>",
	Short: "Write data to a location",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		return c.Write(cmd.Context(), client.Locator{Name: args[0], Location: args[1]}, []byte(args[2]))
	},
}

var DeleteCmd = &cobra.Command{
	Use:   "delete <db> <location>",
	Short: "Delete the record at a location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		return c.Delete(cmd.Context(), client.Locator{Name: args[0], Location: args[1]})
	},
}
