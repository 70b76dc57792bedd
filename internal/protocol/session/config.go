package session

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/assuan/internal/protocol"
	"github.com/danmuck/assuan/internal/protocol/line"
)

// DefaultGreeting is sent by the server when a session opens.
const DefaultGreeting = "Your orders please"

// Config defines per-session behavior shared by both roles. Reserved codes
// and the line limit are agent conventions, so they live here rather than
// as literals in the state machines.
type Config struct {
	Limits   line.Limits
	Codes    protocol.Codes
	Greeting string

	// Server-side OPTION handling.
	StrictOptions bool
	ValidOptions  []string

	// ListenToQuit makes the server honor QUIT in addition to BYE.
	ListenToQuit bool

	Logger zerolog.Logger

	// OnCommand observes each completed server command; outcome is one of
	// "ok", "err", "unknown".
	OnCommand func(name, outcome string, duration time.Duration)
}

func DefaultConfig() Config {
	return Config{
		Limits:   line.DefaultLimits(),
		Codes:    protocol.DefaultCodes(),
		Greeting: DefaultGreeting,
		Logger:   zerolog.Nop(),
	}
}
