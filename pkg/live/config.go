package live

import (
	"log/slog"
	"net/http"
	"time"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address (default: ":8080").
	Address string

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin header of WebSocket upgrades.
	// Default: same-origin only.
	CheckOrigin func(r *http.Request) bool

	// SendBuffer is the number of change messages queued per WebSocket client
	// before it is dropped as too slow (default: 64).
	SendBuffer int

	// WriteTimeout bounds each WebSocket write (default: 10s).
	WriteTimeout time.Duration

	// ReadHeaderTimeout bounds reading request headers (default: 5s).
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration

	// Logger receives server logs. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		CheckOrigin:       sameOrigin,
		SendBuffer:        64,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// withDefaults fills every unset field from DefaultConfig.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}

	out := *c
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.SendBuffer == 0 {
		out.SendBuffer = defaults.SendBuffer
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return &out
}

// sameOrigin accepts requests without an Origin header and requests whose
// Origin host matches the Host header.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, scheme := range []string{"http://", "https://"} {
		if origin == scheme+r.Host {
			return true
		}
	}
	return false
}
