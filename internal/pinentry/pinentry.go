// Package pinentry builds a minimal pinentry-style server on the engine:
// the command surface GnuPG drives to collect a PIN or a confirmation,
// with the user interaction itself injected by the host application.
package pinentry

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/assuan/internal/protocol"
	"github.com/danmuck/assuan/internal/protocol/session"
)

// Version reported through GETINFO.
const Version = "0.2"

// UI supplies the user-facing interactions. Returning ErrCancelled from
// either func reports the operation as cancelled to the peer.
type UI struct {
	GetPin  func(desc, prompt string) ([]byte, error)
	Confirm func(desc string) (bool, error)
	Message func(desc string) error
}

// ErrCancelled signals that the user dismissed the dialog.
var ErrCancelled = fmt.Errorf("pinentry: cancelled by user")

const (
	keyDesc   = "pinentry.desc"
	keyPrompt = "pinentry.prompt"
	keyTitle  = "pinentry.title"
	keyError  = "pinentry.error"
)

// New wires the pinentry command set onto a server session.
func New(transport session.Transport, cfg session.Config, ui UI) *session.Server {
	s := session.NewServer(transport, cfg)
	codes := cfg.Codes

	setString := func(key string) session.Handler {
		return func(ctx *session.ServerContext, parameters string) error {
			ctx.SetValue(key, parameters)
			return nil
		}
	}
	s.Register("SETDESC", setString(keyDesc))
	s.Register("SETPROMPT", setString(keyPrompt))
	s.Register("SETTITLE", setString(keyTitle))
	s.Register("SETERROR", setString(keyError))
	s.Register("SETOK", setString("pinentry.ok"))
	s.Register("SETCANCEL", setString("pinentry.cancel"))

	s.Register("GETPIN", func(ctx *session.ServerContext, _ string) error {
		if ui.GetPin == nil {
			return protocol.NewError(codes.GeneralError, "No pin source")
		}
		pin, err := ui.GetPin(stringValue(ctx, keyDesc), stringValue(ctx, keyPrompt))
		if err != nil {
			if err == ErrCancelled {
				return protocol.NewError(codes.Cancelled, "Operation cancelled")
			}
			return err
		}
		return ctx.Data(pin)
	})

	s.Register("CONFIRM", func(ctx *session.ServerContext, _ string) error {
		if ui.Confirm == nil {
			return protocol.NewError(codes.GeneralError, "No confirmation source")
		}
		ok, err := ui.Confirm(stringValue(ctx, keyDesc))
		if err != nil {
			return err
		}
		if !ok {
			return protocol.NewError(codes.Cancelled, "Not confirmed")
		}
		return nil
	})

	s.Register("MESSAGE", func(ctx *session.ServerContext, _ string) error {
		if ui.Message == nil {
			return nil
		}
		return ui.Message(stringValue(ctx, keyDesc))
	})

	s.Register("GETINFO", func(ctx *session.ServerContext, parameters string) error {
		switch strings.TrimSpace(parameters) {
		case "pid":
			return ctx.Data([]byte(fmt.Sprintf("%d", os.Getpid())))
		case "version":
			return ctx.Data([]byte(Version))
		case "flavor":
			return ctx.Data([]byte("assuan-go"))
		default:
			return protocol.NewError(codes.InvalidParameter, "Invalid parameter")
		}
	})

	return s
}

func stringValue(ctx *session.ServerContext, key string) string {
	v, ok := ctx.Value(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
