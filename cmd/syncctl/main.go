package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/EpicAlbin03/hermitcraft/internal/app"
	"github.com/EpicAlbin03/hermitcraft/internal/config"
	"github.com/EpicAlbin03/hermitcraft/internal/logging"
)

const taskName = "SYNCCTL"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "seed":
		err = cmdSeed(args)
	case "backfill":
		err = cmdBackfill(args)
	case "channel":
		err = cmdChannel(args)
	case "video":
		err = cmdVideo(args)
	case "reclassify":
		err = cmdReclassify(args)
	case "delete-channel":
		err = cmdDeleteChannel(args)
	case "delete-video":
		err = cmdDeleteVideo(args)
	case "wipe":
		err = cmdWipe(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `syncctl - admin tasks for the channel and video mirror

Usage:
  syncctl seed -file channels.json [-videos N]   Insert channels, then backfill their videos
  syncctl backfill [-id CHANNEL] [-max N]        Enumerate uploads for one or all channels
  syncctl channel -id CHANNEL                    Refresh one channel
  syncctl video -id VIDEO                        Refresh one video
  syncctl reclassify -id VIDEO                   Recompute the short flag of a stored video
  syncctl delete-channel -id CHANNEL             Delete a channel and its videos
  syncctl delete-video -id VIDEO                 Delete one video
  syncctl wipe -yes                              Delete every video and channel

For help on a specific command: syncctl <command> -h
`)
}

type env struct {
	ctx    context.Context
	app    *app.App
	logger zerolog.Logger
	stop   context.CancelFunc
}

func (e *env) Close() {
	e.app.Close()
	e.stop()
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, "hermitcraft-syncctl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		stop()
		return nil, err
	}
	return &env{ctx: ctx, app: a, logger: logger, stop: stop}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
