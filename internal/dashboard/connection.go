// ABOUTME: Gateway connection loop: dial, publish the client, reset state on drop, retry
// ABOUTME: Controllers see the connection only through the shared handle

package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/2389/coven-dashboard/internal/gateway"
	"github.com/2389/coven-dashboard/internal/store"
)

var errConnectionLost = errors.New("gateway connection lost")

func dialWebSocket(ctx context.Context, url string, opts gateway.DialOptions) (Conn, error) {
	client, err := gateway.Dial(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// maintainConnection keeps one gateway connection open until ctx ends,
// waiting gateway.reconnect_delay between attempts.
func (d *Dashboard) maintainConnection(ctx context.Context) {
	for {
		conn, err := d.connect(ctx)
		if err == nil {
			d.onConnected(ctx, conn)
			select {
			case <-ctx.Done():
				_ = conn.Close()
				d.onDisconnected(context.Background(), nil)
				return
			case <-conn.Done():
				d.onDisconnected(ctx, errConnectionLost)
			}
		} else if ctx.Err() == nil {
			d.logger.Warn("gateway connect failed", "url", d.config.Gateway.URL, "error", err)
			d.setStatus(false, err.Error())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.config.Gateway.ReconnectDelay):
		}
	}
}

func (d *Dashboard) connect(ctx context.Context) (Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, d.config.Gateway.ConnectTimeout)
	defer cancel()
	return d.dial(dialCtx, d.config.Gateway.URL, gateway.DialOptions{
		Token:          d.config.Gateway.Token,
		RequestTimeout: d.config.Gateway.RequestTimeout,
		OnEvent:        d.onEvent,
		Logger:         d.logger.With("component", "gateway-client"),
	})
}

// onConnected publishes conn and warms the agents list and identities.
func (d *Dashboard) onConnected(ctx context.Context, conn Conn) {
	d.handle.Set(conn, true)
	d.setStatus(true, "")
	d.logger.Info("connected to gateway", "url", d.config.Gateway.URL)
	d.recordConnection(ctx, store.ActivityConnect, "")

	d.controllers.Agents.Load(ctx)
	if list := d.controllers.Agents.Snapshot().List; list != nil {
		d.controllers.Identities.LoadMany(ctx, list.AgentIDs(), false)
	}
}

// onDisconnected clears the handle before resetting, so no controller can
// start a request against the dead client once its state is gone.
func (d *Dashboard) onDisconnected(ctx context.Context, cause error) {
	d.handle.Clear()
	d.controllers.Reset()

	msg := ""
	if cause != nil {
		msg = cause.Error()
		d.logger.Warn("gateway disconnected", "error", cause)
	}
	d.setStatus(false, msg)
	d.recordConnection(ctx, store.ActivityDisconnect, msg)
}

func (d *Dashboard) onEvent(ev gateway.Event) {
	d.logger.Debug("gateway event", "event", ev.Name, "seq", ev.Seq)
}

func (d *Dashboard) setStatus(connected bool, lastErr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if connected && !d.connected {
		d.since = time.Now()
	}
	if !connected {
		d.since = time.Time{}
	}
	d.connected = connected
	d.lastErr = lastErr
}

func (d *Dashboard) recordConnection(ctx context.Context, action store.ActivityAction, errMsg string) {
	entry := &store.Activity{
		Action: action,
		OK:     errMsg == "",
		Error:  errMsg,
		Detail: map[string]any{"url": d.config.Gateway.URL},
	}
	if err := d.store.AppendActivity(ctx, entry); err != nil {
		d.logger.Warn("failed to record activity", "action", action, "error", err)
	}
}
