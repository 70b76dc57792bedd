package config

import (
	"github.com/rs/zerolog"

	"github.com/danmuck/assuan/internal/protocol"
	"github.com/danmuck/assuan/internal/protocol/line"
	"github.com/danmuck/assuan/internal/protocol/session"
)

// SessionConfig converts agent settings into a per-session engine config.
func (cfg AgentConfig) SessionConfig(logger zerolog.Logger) session.Config {
	out := session.DefaultConfig()
	out.Limits = line.Limits{MaxLineLength: cfg.MaxLineLength}
	out.Greeting = cfg.Greeting
	out.StrictOptions = cfg.StrictOptions
	out.ValidOptions = cfg.ValidOptions
	out.ListenToQuit = cfg.ListenToQuit
	out.Logger = logger
	out.Codes = cfg.codes()
	return out
}

// SessionConfig converts client settings into a per-session engine config.
func (cfg ClientConfig) SessionConfig(logger zerolog.Logger) session.Config {
	out := session.DefaultConfig()
	out.Limits = line.Limits{MaxLineLength: cfg.MaxLineLength}
	out.Logger = logger
	return out
}

func (cfg AgentConfig) codes() protocol.Codes {
	codes := protocol.DefaultCodes()
	if cfg.Codes.GeneralError != 0 {
		codes.GeneralError = cfg.Codes.GeneralError
	}
	if cfg.Codes.UnknownCommand != 0 {
		codes.UnknownCommand = cfg.Codes.UnknownCommand
	}
	if cfg.Codes.InvalidRequest != 0 {
		codes.InvalidRequest = cfg.Codes.InvalidRequest
	}
	if cfg.Codes.Cancelled != 0 {
		codes.Cancelled = cfg.Codes.Cancelled
	}
	return codes
}
