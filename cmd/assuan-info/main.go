package main

import (
	"flag"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/assuan/internal/config"
	"github.com/danmuck/assuan/internal/observability"
	"github.com/danmuck/assuan/internal/protocol/line"
	"github.com/danmuck/assuan/internal/protocol/session"
)

func main() {
	logger := observability.InitLogger("assuan-info")
	socketPath := flag.String("socket", "/tmp/assuand.sock", "path to the agent's unix socket")
	configPath := flag.String("config", "", "path to client config toml")
	flag.Parse()

	cfg := config.ClientConfig{
		SocketPath:     *socketPath,
		MaxLineLength:  line.DefaultMaxLineLength,
		TimeoutSeconds: 10,
	}
	if *configPath != "" {
		loaded, err := config.LoadClientConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load client config")
		}
		cfg = loaded
	}

	conn, err := net.DialTimeout("unix", cfg.SocketPath, cfg.Timeout())
	if err != nil {
		log.Fatal().Err(err).Str("socket", cfg.SocketPath).Msg("could not connect (is the agent running?)")
	}
	conn.SetDeadline(time.Now().Add(cfg.Timeout()))

	scfg := cfg.SessionConfig(logger)
	client := session.NewClient(session.NewConnTransport(conn, scfg.Limits), scfg)
	defer client.Close()

	greeting, err := client.Greeting()
	if err != nil {
		log.Fatal().Err(err).Msg("bad greeting")
	}
	log.Info().Str("greeting", greeting).Msg("connected")

	for _, attr := range []string{"name", "version", "pid", "socket_name"} {
		res, err := client.Do("GETINFO", attr)
		if err != nil {
			log.Warn().Err(err).Str("attr", attr).Msg("GETINFO failed")
			continue
		}
		fmt.Printf("%s: %s\n", attr, res.Data)
	}
	if _, err := client.Do("BYE", ""); err != nil {
		log.Warn().Err(err).Msg("BYE failed")
	}
}
