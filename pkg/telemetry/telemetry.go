// Package telemetry reports node status to the chain's telemetry endpoints.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mackerelio/go-osstat/cpu"
	"github.com/mackerelio/go-osstat/memory"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/backoff"
	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/logging"
)

const (
	// DefaultInterval between system.interval messages.
	DefaultInterval = 5 * time.Second

	// DefaultMinReconnect and DefaultMaxReconnect bound the wait between
	// connection attempts.
	DefaultMinReconnect = time.Second
	DefaultMaxReconnect = 10 * time.Minute

	writeTimeout = 10 * time.Second
)

// ConnectionInfo is sent once per connection as system.connected.
type ConnectionInfo struct {
	Chain          string `json:"chain"`
	Name           string `json:"name"`
	Implementation string `json:"implementation"`
	Version        string `json:"version"`
	NetworkID      string `json:"network_id"`
	Authority      bool   `json:"authority"`
	StartupTime    string `json:"startup_time"`
	TargetOS       string `json:"target_os"`
	TargetArch     string `json:"target_arch"`
}

// Status is the node side of a system.interval message.
type Status struct {
	Peers int `json:"peers"`
}

// StatusFunc samples the node's current status.
type StatusFunc func() Status

type message struct {
	ID      int            `json:"id"`
	TS      string         `json:"ts"`
	Payload map[string]any `json:"payload"`
}

// Client pushes telemetry to every endpoint until its context is cancelled.
type Client struct {
	endpoints []chainspec.TelemetryEndpoint
	info      ConnectionInfo
	status    StatusFunc
	logger    *logging.ColoredLogger

	Interval     time.Duration
	MinReconnect time.Duration
	MaxReconnect time.Duration
	Dialer       *websocket.Dialer

	// onRetry observes the backoff before each reconnect wait.
	onRetry func(delay time.Duration)
}

// NewClient creates a client. Call Run to start reporting.
func NewClient(endpoints []chainspec.TelemetryEndpoint, info ConnectionInfo, status StatusFunc, logger *logging.ColoredLogger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if info.StartupTime == "" {
		info.StartupTime = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	if info.TargetOS == "" {
		info.TargetOS = runtime.GOOS
	}
	if info.TargetArch == "" {
		info.TargetArch = runtime.GOARCH
	}
	return &Client{
		endpoints: append([]chainspec.TelemetryEndpoint(nil), endpoints...),
		info:      info,
		status:    status,
		logger:    logger,
		Interval:     DefaultInterval,
		MinReconnect: DefaultMinReconnect,
		MaxReconnect: DefaultMaxReconnect,
		Dialer:       websocket.DefaultDialer,
	}
}

// Run reports to each endpoint concurrently and returns when ctx is done.
func (c *Client) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, ep := range c.endpoints {
		wg.Add(1)
		go func(ep chainspec.TelemetryEndpoint) {
			defer wg.Done()
			c.runEndpoint(ctx, ep)
		}(ep)
	}
	wg.Wait()
	return nil
}

func (c *Client) runEndpoint(ctx context.Context, ep chainspec.TelemetryEndpoint) {
	delay := c.MinReconnect
	for {
		connected, err := c.session(ctx, ep)
		if ctx.Err() != nil {
			return
		}
		if connected {
			delay = c.MinReconnect
		}
		c.logger.ComponentWarn(logging.ComponentTelemetry, "Telemetry connection lost, reconnecting",
			zap.String("endpoint", ep.URL),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)
		if c.onRetry != nil {
			c.onRetry(delay)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff.Jitter(delay, c.MinReconnect)):
		}
		delay = backoff.Next(delay, c.MaxReconnect)
	}
}

// session reports to ep until the connection fails or ctx is done.
// connected is true once system.connected was delivered.
func (c *Client) session(ctx context.Context, ep chainspec.TelemetryEndpoint) (connected bool, err error) {
	conn, _, err := c.Dialer.DialContext(ctx, ep.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	c.logger.ComponentInfo(logging.ComponentTelemetry, "Connected to telemetry",
		zap.String("endpoint", ep.URL),
		zap.Uint8("verbosity", ep.Verbosity),
	)

	if err := c.send(conn, c.connected()); err != nil {
		return false, err
	}

	// Drain anything the server sends so close frames are noticed.
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	var sampler cpuSampler
	_, _ = sampler.usage()

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return true, ctx.Err()
		case err := <-readErr:
			return true, err
		case <-ticker.C:
			if err := c.send(conn, c.interval(&sampler)); err != nil {
				return true, err
			}
		}
	}
}

func (c *Client) send(conn *websocket.Conn, payload map[string]any) error {
	data, err := json.Marshal(message{
		ID:      1,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Payload: payload,
	})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) connected() map[string]any {
	return map[string]any{
		"msg":            "system.connected",
		"chain":          c.info.Chain,
		"name":           c.info.Name,
		"implementation": c.info.Implementation,
		"version":        c.info.Version,
		"network_id":     c.info.NetworkID,
		"authority":      c.info.Authority,
		"startup_time":   c.info.StartupTime,
		"target_os":      c.info.TargetOS,
		"target_arch":    c.info.TargetArch,
	}
}

func (c *Client) interval(sampler *cpuSampler) map[string]any {
	payload := map[string]any{"msg": "system.interval"}
	if c.status != nil {
		payload["peers"] = c.status().Peers
	}
	if usage, err := sampler.usage(); err == nil {
		payload["cpu"] = usage
	}
	if mem, err := memory.Get(); err == nil {
		payload["memory"] = mem.Used
	}
	return payload
}

// cpuSampler computes CPU usage between its own consecutive samples.
type cpuSampler struct {
	prev *cpu.Stats
}

// usage returns the busy percentage since the previous sample.
func (s *cpuSampler) usage() (float64, error) {
	now, err := cpu.Get()
	if err != nil {
		return 0, err
	}

	prev := s.prev
	s.prev = now
	if prev == nil {
		return 0, errors.New("no previous cpu sample")
	}
	total := float64(now.Total - prev.Total)
	if total == 0 {
		return 0, errors.New("no cpu time elapsed")
	}
	idle := float64(now.Idle - prev.Idle)
	return (1.0 - idle/total) * 100.0, nil
}
