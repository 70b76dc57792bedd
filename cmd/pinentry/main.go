// pinentry serves the pinentry command set over stdio, collecting the PIN
// from the controlling terminal. Protocol lines own stdout; logs go to
// stderr.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/assuan/internal/logging"
	"github.com/danmuck/assuan/internal/pinentry"
	"github.com/danmuck/assuan/internal/protocol/session"
)

func main() {
	logging.ConfigureRuntime()

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open controlling terminal")
	}
	defer tty.Close()
	ttyIn := bufio.NewReader(tty)

	ui := pinentry.UI{
		GetPin: func(desc, prompt string) ([]byte, error) {
			if desc != "" {
				fmt.Fprintln(tty, desc)
			}
			if prompt == "" {
				prompt = "PIN"
			}
			fmt.Fprintf(tty, "%s: ", prompt)
			entry, err := ttyIn.ReadString('\n')
			if err != nil {
				return nil, pinentry.ErrCancelled
			}
			return []byte(strings.TrimRight(entry, "\r\n")), nil
		},
		Confirm: func(desc string) (bool, error) {
			fmt.Fprintf(tty, "%s (y/N): ", desc)
			entry, err := ttyIn.ReadString('\n')
			if err != nil {
				return false, nil
			}
			entry = strings.ToLower(strings.TrimSpace(entry))
			return entry == "y" || entry == "yes", nil
		},
		Message: func(desc string) error {
			fmt.Fprintln(tty, desc)
			return nil
		},
	}

	cfg := session.DefaultConfig()
	cfg.Logger = log.Logger
	cfg.ValidOptions = []string{"ttyname", "ttytype", "lc-ctype", "lc-messages", "grab", "no-grab"}

	transport := session.NewStreamTransport(os.Stdin, os.Stdout, cfg.Limits)
	server := pinentry.New(transport, cfg, ui)
	if err := server.Serve(); err != nil {
		log.Fatal().Err(err).Msg("pinentry stopped")
	}
}
