// ABOUTME: Entry point for coven-dashboard, the operator dashboard for a coven agent gateway
// ABOUTME: Cobra root command, banner, .env loading, and config resolution

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/2389/coven-dashboard/internal/config"
)

var version = "dev"

const banner = `
  ___ _____   _____ _ __        __| | __ _ ___| |__ | |__   ___   __ _ _ __ __| |
 / __/ _ \ \ / / _ \ '_ \ _____/ _' |/ _' / __| '_ \| '_ \ / _ \ / _' | '__/ _' |
| (_| (_) \ V /  __/ | | |_____| (_| | (_| \__ \ | | | |_) | (_) | (_| | | | (_| |
 \___\___/ \_/ \___|_| |_|      \__,_|\__,_|___/_| |_|_.__/ \___/ \__,_|_|  \__,_|
`

func main() {
	// A missing .env is normal; values may come from the real environment.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions are the persistent flags shared by every subcommand.
type cliOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "coven-dashboard",
		Short:         "Web dashboard for managing the agents of a coven gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath(),
		"path to the dashboard config file (env "+config.EnvConfigPath+")")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newAgentsCmd(opts),
		newIdentityCmd(opts),
		newTokenCmd(opts),
		newHashPasswordCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func (o *cliOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
