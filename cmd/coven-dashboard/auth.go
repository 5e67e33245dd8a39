// ABOUTME: token and hash-password commands for dashboard sign-in
// ABOUTME: token mints a session JWT and prints a one-click login link

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-dashboard/internal/auth"
	"github.com/2389/coven-dashboard/internal/config"
)

func newTokenCmd(opts *cliOptions) *cobra.Command {
	var (
		operator string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token and print a login link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.SessionTTL
			}
			token, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)).Generate(operator, ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintln(out)
			color.New(color.FgGreen).Fprint(out, "  ▶ ")
			fmt.Fprintf(out, "Login:   %s\n", loginURL(cfg, token))
			color.New(color.FgHiBlack).Fprintf(out, "    expires in %s\n", ttl)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", auth.DefaultOperator, "operator name recorded in the session")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.session_ttl)")
	return cmd
}

// loginURL points at /login?token= on the address the dashboard serves.
func loginURL(cfg *config.Config, token string) string {
	u := url.URL{Scheme: "http", Host: cfg.Server.HTTPAddr, Path: "/login"}
	if cfg.Tailscale.Enabled {
		u.Host = cfg.Tailscale.Hostname
		if cfg.Tailscale.HTTPS {
			u.Scheme = "https"
		}
	}
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String()
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash for auth.password_hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

// readPassword returns the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
