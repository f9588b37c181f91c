package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smoldb/smoldb-go/internal/env"
	"github.com/smoldb/smoldb-go/stubserver"
)

var (
	// The host the stub listens on
	stubHost string

	// The port the stub listens for clients on
	stubPort int

	// The port the stub serves its health endpoint on
	stubHTTPPort int
)

func init() {
	flags := StubCmd.PersistentFlags()

	flags.IntVarP(&stubPort, "port", "p", 8222, "The port to listen for client connections on")
	flags.IntVar(&stubHTTPPort, "http-port", 8221, "The port to serve the health endpoint on, 0 disables it")
	flags.StringVar(&stubHost, "host", "0.0.0.0", "The host to listen on")
}

var StubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run an in-memory SmolDB server stub",
	Long: `Run an in-memory SmolDB server stub

The stub speaks the full wire protocol, including encryption negotiation,
backed by a throwaway in-memory store. It exists for local development
and integration environments, not production.

Usage
	smoldb stub --key test_key_123

`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		log, err := env.MakeLogger()
		if err != nil {
			return err
		}

		fileLimit, err := setFileLimit()
		if err != nil {
			return err
		}

		log.Info("Set file limit", zap.Uint64("fileLimit", fileLimit))

		server := stubserver.New(stubserver.Options{
			Host:      stubHost,
			Port:      stubPort,
			HTTPPort:  stubHTTPPort,
			AccessKey: accessKey,
			Log:       log,
		})

		if err := server.Start(ctx); err != nil {
			return err
		}

		log.Info("Stub listening",
			zap.String("host", stubHost),
			zap.Int("port", stubPort),
			zap.Int("httpPort", stubHTTPPort))

		// Listen for the interrupt signal.
		<-ctx.Done()

		signalStop()
		log.Info("Shutting down")

		if err := server.Close(); err != nil {
			log.Error("Stub forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func setFileLimit() (uint64, error) {
	var rLimit syscall.Rlimit

	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	rLimit.Cur = rLimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	return rLimit.Cur, nil
}
