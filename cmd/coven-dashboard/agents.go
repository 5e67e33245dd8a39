// ABOUTME: agents and identity commands that talk to the gateway through the dashboard controllers
// ABOUTME: One short-lived WebSocket connection per invocation

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/2389/coven-dashboard/internal/config"
	"github.com/2389/coven-dashboard/internal/controller"
	"github.com/2389/coven-dashboard/internal/gateway"
)

// openControllers dials the gateway and returns controllers bound to the
// new connection. The caller must call the returned close function.
func openControllers(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*controller.Set, func(), error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Gateway.ConnectTimeout)
	defer cancel()

	client, err := gateway.Dial(dialCtx, cfg.Gateway.URL, gateway.DialOptions{
		Token:          cfg.Gateway.Token,
		RequestTimeout: cfg.Gateway.RequestTimeout,
		Logger:         logger.With("component", "gateway-client"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to gateway %s: %w", cfg.Gateway.URL, err)
	}
	ctl := controller.NewSet(gateway.NewHandle(client), controller.SetOptions{}, logger)
	return ctl, func() { _ = client.Close() }, nil
}

// withControllers runs fn against a fresh gateway connection.
// CLI logs go to stderr so stdout stays parseable.
func withControllers(cmd *cobra.Command, opts *cliOptions, fn func(ctx context.Context, ctl *controller.Set) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())

	ctl, closeConn, err := openControllers(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeConn()
	return fn(cmd.Context(), ctl)
}

func newAgentsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List and manage gateway agents",
	}
	cmd.AddCommand(
		newAgentsListCmd(opts),
		newAgentsCreateCmd(opts),
		newAgentsUpdateCmd(opts),
		newAgentsDeleteCmd(opts),
	)
	return cmd
}

func newAgentsListCmd(opts *cliOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents with their identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withControllers(cmd, opts, func(ctx context.Context, ctl *controller.Set) error {
				ctl.Agents.Load(ctx)
				snap := ctl.Agents.Snapshot()
				if snap.Error != "" {
					return errors.New(snap.Error)
				}
				if snap.List == nil {
					return errors.New("gateway returned no agents list")
				}
				ctl.Identities.LoadMany(ctx, snap.List.AgentIDs(), false)
				identities := ctl.Identities.Snapshot()
				if identities.Error != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: identities incomplete: %s\n", identities.Error)
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(agentRows(snap.List, identities.ByID))
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), renderAgentsTable(snap.List, identities.ByID))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newAgentsCreateCmd(opts *cliOptions) *cobra.Command {
	var params gateway.CreateAgentParams
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if params.Name == "" {
				return errors.New("--name is required")
			}
			return withControllers(cmd, opts, func(ctx context.Context, ctl *controller.Set) error {
				created := ctl.Agents.Create(ctx, params)
				if snap := ctl.Agents.Snapshot(); snap.Error != "" {
					return errors.New(snap.Error)
				}
				if created == "" {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "create request sent; the gateway returned no agent id")
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "created agent %s\n", created)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&params.Name, "name", "", "agent name (required)")
	cmd.Flags().StringVar(&params.Workspace, "workspace", "", "workspace directory")
	cmd.Flags().StringVar(&params.Emoji, "emoji", "", "identity emoji")
	cmd.Flags().StringVar(&params.Avatar, "avatar", "", "avatar URL or path")
	return cmd
}

func newAgentsUpdateCmd(opts *cliOptions) *cobra.Command {
	var params gateway.UpdateAgentParams
	cmd := &cobra.Command{
		Use:   "update AGENT_ID",
		Short: "Change an agent's name, emoji, avatar or model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.AgentID = args[0]
			if params.Name == "" && params.Emoji == "" && params.Avatar == "" && params.Model == "" {
				return errors.New("nothing to update: pass --name, --emoji, --avatar or --model")
			}
			return withControllers(cmd, opts, func(ctx context.Context, ctl *controller.Set) error {
				if err := ctl.Agents.Update(ctx, params); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "updated agent %s\n", params.AgentID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&params.Name, "name", "", "new name")
	cmd.Flags().StringVar(&params.Emoji, "emoji", "", "new emoji")
	cmd.Flags().StringVar(&params.Avatar, "avatar", "", "new avatar URL or path")
	cmd.Flags().StringVar(&params.Model, "model", "", "new primary model")
	return cmd
}

func newAgentsDeleteCmd(opts *cliOptions) *cobra.Command {
	var deleteFiles bool
	cmd := &cobra.Command{
		Use:   "delete AGENT_ID",
		Short: "Delete an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]
			return withControllers(cmd, opts, func(ctx context.Context, ctl *controller.Set) error {
				ctl.Agents.Delete(ctx, agentID, deleteFiles)
				if snap := ctl.Agents.Snapshot(); snap.Error != "" {
					return errors.New(snap.Error)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted agent %s\n", agentID)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "also remove the agent's workspace files")
	return cmd
}

func newIdentityCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "identity AGENT_ID",
		Short: "Show an agent's identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]
			return withControllers(cmd, opts, func(ctx context.Context, ctl *controller.Set) error {
				ctl.Identities.Load(ctx, agentID, true)
				if snap := ctl.Identities.Snapshot(); snap.Error != "" {
					return errors.New(snap.Error)
				}
				identity, ok := ctl.Identities.Get(agentID)
				if !ok {
					return fmt.Errorf("agent %s has no identity", agentID)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), renderIdentity(identity))
				return err
			})
		},
	}
}
