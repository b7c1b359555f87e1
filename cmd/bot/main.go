package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/glassbot/bot"
	"github.com/domino14/glassbot/config"
)

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Info().Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := bot.NewSession(cfg.NewSolver())
	var err error
	switch cfg.GetString(config.ConfigTransport) {
	case config.TransportNats:
		err = bot.Main(ctx, cfg.GetString(config.ConfigNatsURL),
			cfg.GetString(config.ConfigNatsSubject), session)
	case config.TransportWebsocket:
		err = runWebsocket(ctx, cfg, session)
	default:
		err = fmt.Errorf("unknown transport %q", cfg.GetString(config.ConfigTransport))
	}
	log.Info().Str("timing-ms", session.Timing().String()).Msg("session-done")
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("bot-exited")
		pprof.StopCPUProfile()
		os.Exit(1)
	}
	log.Info().Msg("bot gracefully shutting down")
}

func runWebsocket(ctx context.Context, cfg *config.Config, session *bot.Session) error {
	url := cfg.GetString(config.ConfigServerURL)
	if url == "" {
		return errors.New("no server-url given")
	}
	c := bot.NewClient(url, session)
	c.SetDialRetry(cfg.GetInt(config.ConfigDialAttempts), cfg.GetDuration(config.ConfigDialDelay))
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Run(ctx)
}
