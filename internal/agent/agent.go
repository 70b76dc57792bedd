// Package agent assembles the command set served by assuand: a small
// session-scoped key/value store driven over the Assuan protocol, useful
// for exercising clients against a live socket.
package agent

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/assuan/internal/protocol"
	"github.com/danmuck/assuan/internal/protocol/session"
)

// Version reported through GETINFO.
const Version = "0.2"

// New wires the agent command set onto a server session.
func New(transport session.Transport, cfg session.Config, name, socketPath string) *session.Server {
	s := session.NewServer(transport, cfg)
	codes := cfg.Codes

	s.Register("GETINFO", func(ctx *session.ServerContext, parameters string) error {
		switch strings.TrimSpace(parameters) {
		case "name":
			return ctx.Data([]byte(name))
		case "pid":
			return ctx.Data([]byte(fmt.Sprintf("%d", os.Getpid())))
		case "version":
			return ctx.Data([]byte(Version))
		case "socket_name":
			return ctx.Data([]byte(socketPath))
		default:
			return protocol.NewError(codes.InvalidParameter, "Invalid parameter")
		}
	})

	s.Register("ECHO", func(ctx *session.ServerContext, parameters string) error {
		return ctx.Data([]byte(parameters))
	})

	// STORE key: the value arrives through an INQUIRE sub-dialog, so
	// arbitrary bytes never ride on the command line.
	s.Register("STORE", func(ctx *session.ServerContext, parameters string) error {
		key := strings.TrimSpace(parameters)
		if key == "" {
			return protocol.NewError(codes.InvalidParameter, "Missing key")
		}
		value, err := ctx.Inquire("VALUE", key)
		if err != nil {
			if errors.Is(err, session.ErrInquireCancelled) {
				return protocol.NewError(codes.Cancelled, "Operation cancelled")
			}
			return err
		}
		ctx.SetValue("store."+key, value)
		ctx.SetOK(fmt.Sprintf("stored %d bytes", len(value)))
		return nil
	})

	s.Register("FETCH", func(ctx *session.ServerContext, parameters string) error {
		key := strings.TrimSpace(parameters)
		if key == "" {
			return protocol.NewError(codes.InvalidParameter, "Missing key")
		}
		v, ok := ctx.Value("store." + key)
		if !ok {
			return protocol.NewError(codes.GeneralError, "No such key")
		}
		value, _ := v.([]byte)
		return ctx.Data(value)
	})

	return s
}
