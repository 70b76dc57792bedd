package main

import (
	"flag"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/danmuck/assuan/internal/agent"
	"github.com/danmuck/assuan/internal/config"
	"github.com/danmuck/assuan/internal/observability"
	"github.com/danmuck/assuan/internal/protocol/session"
)

func main() {
	logger := observability.InitLogger("assuand")
	configPath := flag.String("config", "", "path to agent config toml")
	flag.Parse()

	cfg := config.DefaultAgentConfig()
	if *configPath != "" {
		loaded, err := config.LoadAgentConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load agent config")
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded agent config")
	}

	if err := os.Remove(cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		log.Fatal().Err(err).Str("socket", cfg.SocketPath).Msg("failed to clear stale socket")
	}
	listener, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		log.Fatal().Err(err).Str("socket", cfg.SocketPath).Msg("failed to listen")
	}
	defer listener.Close()
	log.Info().Str("name", cfg.Name).Str("socket", cfg.SocketPath).Msg("agent started")

	var g errgroup.Group
	if cfg.AdminAddr != "" {
		router := observability.AdminRouter(cfg.Name, logger)
		g.Go(func() error {
			log.Info().Str("addr", cfg.AdminAddr).Msg("admin listener started")
			return router.Run(cfg.AdminAddr)
		})
	}
	g.Go(func() error {
		return acceptLoop(listener, cfg)
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("agent stopped")
	}
}

func acceptLoop(listener net.Listener, cfg config.AgentConfig) error {
	var sessions errgroup.Group
	sessions.SetLimit(cfg.MaxSessions)
	defer sessions.Wait()
	for {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}
		sessions.Go(func() error {
			serveConn(conn, cfg)
			return nil
		})
	}
}

func serveConn(conn net.Conn, cfg config.AgentConfig) {
	logger := log.With().Str("peer", conn.RemoteAddr().String()).Logger()
	scfg := cfg.SessionConfig(logger)
	scfg.OnCommand = func(name, outcome string, duration time.Duration) {
		observability.RecordCommand(cfg.Name, name, outcome, duration)
	}
	observability.SessionStarted(cfg.Name)

	transport := session.NewConnTransport(conn, scfg.Limits)
	server := agent.New(transport, scfg, cfg.Name, cfg.SocketPath)
	if err := server.Serve(); err != nil {
		observability.SessionClosed(cfg.Name, "fatal")
		logger.Error().Err(err).Msg("session ended abnormally")
		return
	}
	observability.SessionClosed(cfg.Name, "ok")
	logger.Info().Msg("session closed")
}
