// ABOUTME: serve command: prints the startup banner and runs the dashboard until interrupted
// ABOUTME: Startup lines use fatih/color like the rest of the coven tooling

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-dashboard/internal/dashboard"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *cliOptions) error {
	out := cmd.OutOrStdout()

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(out, banner)
	gray.Fprintf(out, "    version: %s\n\n", version)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Config:    %s\n", opts.configPath)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Gateway:   %s\n", cfg.Gateway.URL)
	if cfg.Tailscale.Enabled {
		green.Fprint(out, "    ▶ ")
		fmt.Fprint(out, "Tailscale: ")
		cyan.Fprint(out, cfg.Tailscale.Hostname)
		if cfg.Tailscale.HTTPS {
			yellow.Fprint(out, " [https]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Fprint(out, " (ephemeral)")
		}
		fmt.Fprintln(out)
	} else {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "HTTP:      %s\n", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.PasswordHash == "" {
		yellow.Fprint(out, "    ! ")
		fmt.Fprintln(out, "Password login disabled; sign in with `coven-dashboard token`")
	}
	fmt.Fprintln(out)

	logger.Info("starting coven-dashboard",
		"config", opts.configPath,
		"gateway_url", cfg.Gateway.URL,
		"http_addr", cfg.Server.HTTPAddr,
	)

	d, err := dashboard.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating dashboard: %w", err)
	}
	return d.Run(cmd.Context())
}
