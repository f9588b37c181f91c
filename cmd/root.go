package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smoldb/smoldb-go/client"
	"github.com/smoldb/smoldb-go/cmd/gen"
	"github.com/smoldb/smoldb-go/internal/env"
)

var (
	// The server address, overrides SMOLDB_ADDR
	addr string

	// The access key, overrides SMOLDB_ACCESS_KEY
	accessKey string

	// Negotiate transport encryption before any operation
	encrypt bool
)

var rootCmd = &cobra.Command{
	Use:   "smoldb",
	Short: "Client for the SmolDB key-value database",
	Long: `Client for the SmolDB key-value database

Records are addressed by a database name and a location within it:

	smoldb write users u1 '{"name":"ada"}'
	smoldb read users u1
`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&addr, "addr", "a", "", "The server address as host:port (default: SMOLDB_ADDR)")
	flags.StringVarP(&accessKey, "key", "k", "", "The access key (default: SMOLDB_ACCESS_KEY)")
	flags.BoolVar(&encrypt, "encrypt", false, "Negotiate transport encryption before any operation")

	rootCmd.AddCommand(
		ReadCmd,
		WriteCmd,
		DeleteCmd,
		CreateDBCmd,
		DropDBCmd,
		ListCmd,
		StubCmd,
		gen.RootCmd,
	)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds a connected client from the environment plus any flag
// overrides. Callers own Close.
func newClient(ctx context.Context) (*client.Client, *zap.Logger, error) {
	conf, err := env.LoadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	if addr != "" {
		conf.Addr = addr
	}
	if accessKey != "" {
		conf.AccessKey = accessKey
	}
	if encrypt {
		conf.RequireEncryption = true
	}

	log, err := env.MakeLogger()
	if err != nil {
		return nil, nil, err
	}

	opts := []client.Option{
		client.WithLogger(log),
		client.WithDialTimeout(conf.DialTimeout),
		client.WithTimeout(conf.IOTimeout),
	}
	if conf.RequireEncryption {
		opts = append(opts, client.WithRequireEncryption())
	}

	c, err := client.New(conf.Addr, opts...)
	if err != nil {
		return nil, nil, err
	}

	c.SetKey(conf.AccessKey)

	return c, log, nil
}
