package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/streamdl/async"
)

const appName = "streamdl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newApp(os.Stdout)
	result := async.Run(func() error { return app.RunContext(ctx, os.Args) })

	var err error
	select {
	case err = <-result:
	case <-ctx.Done():
		stop()
		err = <-result
	}
	_ = zap.L().Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      appName,
		Usage:     "download a single stream of a YouTube video",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "minimum `LEVEL` to log (debug, info, warn, error)",
				EnvVars: []string{"STREAMDL_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log everything, same as --log-level=debug",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "also write logs to `FILE`",
				EnvVars: []string{"STREAMDL_LOG_FILE"},
			},
		},
		Before: func(c *cli.Context) error {
			level := c.String("log-level")
			if c.Bool("verbose") {
				level = "debug"
			}
			logger, err := newLogger(level, c.String("log-file"))
			if err != nil {
				return err
			}
			zap.RedirectStdLog(logger)
			zap.ReplaceGlobals(logger)
			return nil
		},
		Commands: []*cli.Command{
			downloadCommand(),
			fetchCommand(),
			historyCommand(),
		},
		HideHelpCommand: true,
	}
}

func newLogger(level string, logFile string) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	config.Level = zap.NewAtomicLevelAt(l)
	if logFile != "" {
		// No colour escapes in files
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.OutputPaths = append(config.OutputPaths, logFile)
	}
	logger, err := config.Build()
	if err != nil {
		log.Printf("can't initialize zap logger: %v", err)
		return nil, err
	}
	return logger, nil
}
