package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/dkeye/Bingo/internal/caller"
)

func main() {
	server := pflag.String("server", "http://localhost:8080", "bingo server base URL")
	room := pflag.String("room", "", "room code")
	player := pflag.String("player", "", "host player id")
	initial := pflag.Duration("initial-delay", caller.DefaultInitialDelay, "wait before the first draw")
	minDelay := pflag.Duration("min-delay", caller.DefaultMinDelay, "shortest gap between draws")
	maxDelay := pflag.Duration("max-delay", caller.DefaultMaxDelay, "longest gap between draws")
	debug := pflag.Bool("debug", false, "verbose logging")
	pflag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *room == "" || *player == "" {
		log.Error().Msg("--room and --player are required")
		pflag.Usage()
		os.Exit(2)
	}
	if *maxDelay < *minDelay {
		log.Error().Dur("min", *minDelay).Dur("max", *maxDelay).Msg("--max-delay must not be below --min-delay")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := caller.New(caller.NewHTTPDrawer(*server, *room, *player))
	c.InitialDelay = *initial
	c.MinDelay = *minDelay
	c.MaxDelay = *maxDelay

	log.Info().Str("server", *server).Str("room", *room).Msg("autocaller started")
	if err := c.Run(ctx); err != nil {
		log.Info().Err(err).Msg("autocaller finished")
	}
}
