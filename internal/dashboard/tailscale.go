// ABOUTME: Tailscale tsnet listener for serving the dashboard on a tailnet
// ABOUTME: Plain HTTP on :80, or HTTPS on :443 with tailnet-issued certificates

package dashboard

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"
)

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "coven-dashboard", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set tailscale.auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}

func (d *Dashboard) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := d.config.Tailscale
	if d.config.Server.HTTPAddr != "" {
		d.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", d.config.Server.HTTPAddr)
	}

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	d.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	d.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := d.tsnetServer.Up(ctx)
	if err != nil {
		_ = d.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	d.logTailscaleStatus(tsCfg.Hostname, status)

	if tsCfg.HTTPS {
		return d.createTailscaleTLSListener()
	}
	ln, err := d.tsnetServer.Listen("tcp", ":80")
	if err != nil {
		_ = d.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
	}
	return ln, nil
}

func (d *Dashboard) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		d.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	d.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

func (d *Dashboard) createTailscaleTLSListener() (net.Listener, error) {
	d.logger.Info("enabling HTTPS with Tailscale certs on :443")
	ln, err := d.tsnetServer.Listen("tcp", ":443")
	if err != nil {
		_ = d.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTPS port: %w", err)
	}
	lc, err := d.tsnetServer.LocalClient()
	if err != nil {
		_ = ln.Close()
		_ = d.tsnetServer.Close()
		return nil, fmt.Errorf("getting tailscale local client: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		GetCertificate: lc.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}), nil
}
