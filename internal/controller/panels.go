// ABOUTME: Resource constructors for the skills, channels, and cron panels
// ABOUTME: Each wraps one or two gateway status calls in a Resource

package controller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// Skills is the per-agent skills report. Its key is the agent id the report belongs to.
type Skills = Resource[gateway.SkillStatusReport]

// Channels is the channel status report.
type Channels = Resource[gateway.ChannelsStatus]

// Cron is the scheduler status plus its job list.
type Cron = Resource[CronOverview]

// CronOverview combines cron.status and cron.list.
type CronOverview struct {
	Status *gateway.CronStatus
	Jobs   []gateway.CronJob
}

// JobsFor returns the jobs that target agentID.
func (o *CronOverview) JobsFor(agentID string) []gateway.CronJob {
	if o == nil {
		return nil
	}
	var jobs []gateway.CronJob
	for _, job := range o.Jobs {
		if job.AgentID == agentID {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// NewSkills creates the skills panel resource.
func NewSkills(handle *gateway.Handle, logger *slog.Logger) *Skills {
	return NewResource("skills", handle, func(ctx context.Context, client gateway.Requester, agentID string) (*gateway.SkillStatusReport, error) {
		return gateway.Call[gateway.SkillStatusReport](ctx, client, gateway.MethodSkillsStatus,
			gateway.AgentIdentityParams{AgentID: agentID})
	}, logger)
}

// NewChannels creates the channels panel resource. probe asks the gateway to
// check each channel live instead of reporting cached state.
func NewChannels(handle *gateway.Handle, probe bool, timeoutMs int64, logger *slog.Logger) *Channels {
	return NewResource("channels", handle, func(ctx context.Context, client gateway.Requester, _ string) (*gateway.ChannelsStatus, error) {
		return gateway.Call[gateway.ChannelsStatus](ctx, client, gateway.MethodChannelsStatus,
			gateway.ChannelsStatusParams{Probe: probe, TimeoutMs: timeoutMs})
	}, logger)
}

// NewCron creates the cron panel resource. Status and jobs are fetched one
// after the other; if either fails nothing is committed.
func NewCron(handle *gateway.Handle, logger *slog.Logger) *Cron {
	return NewResource("cron", handle, func(ctx context.Context, client gateway.Requester, _ string) (*CronOverview, error) {
		status, err := gateway.Call[gateway.CronStatus](ctx, client, gateway.MethodCronStatus, nil)
		if err != nil {
			return nil, fmt.Errorf("cron status: %w", err)
		}
		jobs, err := gateway.Call[gateway.CronJobs](ctx, client, gateway.MethodCronList,
			gateway.CronListParams{IncludeDisabled: true})
		if err != nil {
			return nil, fmt.Errorf("cron jobs: %w", err)
		}
		overview := &CronOverview{Status: status}
		if jobs != nil {
			overview.Jobs = jobs.Jobs
		}
		return overview, nil
	}, logger)
}
