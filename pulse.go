// Package pulse is the client transport layer of the verification
// dashboard: a retrying JSON request client and a reliable realtime
// socket that degrades to REST polling when the connection cannot be
// re-established.
//
// The two ready-made stream flavours differ only in endpoint, reconnect
// budget, heartbeat cadence, and how a fallback poll is translated into
// the envelopes the socket would have pushed.
package pulse

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"verigate.github.io/pulse/api"
	"verigate.github.io/pulse/backoff"
	"verigate.github.io/pulse/envelope"
	"verigate.github.io/pulse/socket"
	"verigate.github.io/pulse/xlog"
)

// Config carries the application-supplied settings shared by the request
// client and the stream sockets.
type Config struct {
	// BaseURL is the API origin, e.g. https://dash.example.com.
	BaseURL string
	// Headers supplies the credential headers, nil when not logged in.
	Headers api.HeaderProvider
	// Unauthorized runs when the server rejects the credential.
	Unauthorized func()
	// Logger defaults to the process-wide xlog logger.
	Logger *xlog.Logger
}

func (c Config) logger() *xlog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return xlog.Default()
}

// NewClient builds the request client for the dashboard API.
func NewClient(cfg Config, opts ...api.Option) *api.Client {
	base := []api.Option{
		api.WithLogger(cfg.logger().With("component", "api")),
		api.WithHeaders(cfg.Headers),
		api.WithUnauthorized(cfg.Unauthorized),
	}
	return api.New(cfg.BaseURL, append(base, opts...)...)
}

// NewNotificationSocket streams account notifications. While in fallback
// it polls the unread-notifications endpoint and replays each entry as a
// notification envelope.
func NewNotificationSocket(cfg Config, opts ...socket.Option) *socket.Socket {
	client := NewClient(cfg)
	base := []socket.Option{
		socket.WithLogger(cfg.logger().With("component", "socket", "stream", "notifications")),
		socket.WithHeader(cfg.Headers),
		socket.WithReconnect(10, backoff.Exponential(time.Second, time.Second*30)),
		socket.WithHeartbeat(time.Second*30, time.Second*5),
		socket.WithFallback(&notificationPoller{client: client}, time.Second*15),
	}
	return socket.New(wsURL(cfg.BaseURL, "/ws/notifications"), append(base, opts...)...)
}

// NewActivationSocket streams status updates for one activation. Its
// budget is tighter and its heartbeat faster: a single-resource view goes
// stale quickly and the fallback poll is cheap.
func NewActivationSocket(cfg Config, activationID string, opts ...socket.Option) *socket.Socket {
	client := NewClient(cfg)
	base := []socket.Option{
		socket.WithLogger(cfg.logger().With("component", "socket", "stream", "activation", "activation", activationID)),
		socket.WithHeader(cfg.Headers),
		socket.WithReconnect(5, backoff.Exponential(time.Millisecond*500, time.Second*10)),
		socket.WithHeartbeat(time.Second*10, time.Second*3),
		socket.WithFallback(&activationPoller{client: client, id: activationID}, time.Second*5),
	}
	return socket.New(wsURL(cfg.BaseURL, "/ws/activations/"+activationID), append(base, opts...)...)
}

// wsURL turns the API origin into the websocket URL for path.
func wsURL(base, path string) string {
	url := strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + path
}

// notificationPoller replays unread notifications as the envelopes the
// socket would have pushed.
type notificationPoller struct {
	client *api.Client
}

func (p *notificationPoller) PollOnce(ctx context.Context) ([]envelope.Envelope, error) {
	var items []struct {
		ID      string          `json:"id"`
		Payload json.RawMessage `json:"payload"`
	}
	err := p.client.GetJSON(ctx, "/api/notifications/unread", &items, api.WithAuth())
	if err != nil {
		return nil, err
	}
	envs := make([]envelope.Envelope, 0, len(items))
	for _, it := range items {
		envs = append(envs, envelope.Envelope{
			Kind:      envelope.KindNotification,
			ID:        it.ID,
			Payload:   it.Payload,
			Timestamp: time.Now().UnixMilli(),
		})
	}
	return envs, nil
}

// activationPoller fetches the current state of one activation and
// reports it as a single status envelope.
type activationPoller struct {
	client *api.Client
	id     string
}

func (p *activationPoller) PollOnce(ctx context.Context) ([]envelope.Envelope, error) {
	resp, err := p.client.Get(ctx, "/api/activations/"+p.id, api.WithAuth())
	if err != nil {
		return nil, err
	}
	return []envelope.Envelope{{
		Kind:      envelope.KindStatus,
		ID:        p.id,
		Payload:   resp.Body,
		Timestamp: time.Now().UnixMilli(),
	}}, nil
}
