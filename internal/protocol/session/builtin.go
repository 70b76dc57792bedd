package session

import (
	"regexp"

	"github.com/danmuck/assuan/internal/protocol"
)

var optionRegexp = regexp.MustCompile(`\A-?-?([-\w]+)( *)(=?) *(.*?) *\z`)

// registerBuiltins installs the common commands every Assuan server
// answers. Applications may override any of them via Register.
func (s *Server) registerBuiltins() {
	s.Register("BYE", s.handleBye)
	s.Register("RESET", s.handleReset)
	s.Register("OPTION", s.handleOption)
	s.Register("NOP", s.handleNop)
	s.Register("QUIT", s.handleQuit)
	s.Register("END", s.handleReserved)
	s.Register("HELP", s.handleReserved)
	s.Register("CANCEL", s.handleReserved)
	s.Register("AUTH", s.handleReserved)
}

func (s *Server) handleBye(ctx *ServerContext, _ string) error {
	s.stop = true
	ctx.SetOK("closing connection")
	return nil
}

func (s *Server) handleReset(ctx *ServerContext, _ string) error {
	ctx.Reset()
	return nil
}

func (s *Server) handleNop(_ *ServerContext, _ string) error {
	return nil
}

func (s *Server) handleQuit(ctx *ServerContext, _ string) error {
	if !s.cfg.ListenToQuit {
		return s.handleReserved(ctx, "")
	}
	s.stop = true
	ctx.SetOK("stopping the server")
	return nil
}

func (s *Server) handleReserved(_ *ServerContext, _ string) error {
	return protocol.NewError(s.cfg.Codes.UnknownCommand, "Unknown command (reserved)")
}

// handleOption accepts "name", "name=value", "--name value" and friends.
// A value requires a space or '=' separator; unknown names fail in strict
// mode and are skipped otherwise.
func (s *Server) handleOption(_ *ServerContext, parameters string) error {
	match := optionRegexp.FindStringSubmatch(parameters)
	if match == nil {
		return protocol.NewError(s.cfg.Codes.InvalidParameter, "Invalid parameter")
	}
	name, space, equal, value := match[1], match[2], match[3], match[4]
	if value != "" && space == "" && equal == "" {
		return protocol.NewError(s.cfg.Codes.InvalidParameter, "Invalid parameter")
	}
	if !s.validOption(name) {
		if s.cfg.StrictOptions {
			return protocol.NewError(s.cfg.Codes.UnknownOption, "Unknown option")
		}
		s.log.Info().Str("option", name).Msg("skipping unknown option")
		return nil
	}
	s.options[name] = value
	return nil
}

func (s *Server) validOption(name string) bool {
	for _, v := range s.cfg.ValidOptions {
		if v == name {
			return true
		}
	}
	return false
}
