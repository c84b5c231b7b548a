package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "admissions",
		Usage: "Admissions form configuration and application entry panel",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format, json or text",
				Value:   "json",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},
		Before: func(c *cli.Context) error {
			_, err := newLogger(c)
			return err
		},
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			seedCommand,
			schemaCommand,
			nanoidCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}

// newLogger builds a logger from the global log flags. The standard logger follows the
// same settings so package level calls match.
func newLogger(c *cli.Context) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var formatter logrus.Formatter
	switch c.String("log-format") {
	case "json":
		formatter = &logrus.JSONFormatter{}
	case "text":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return nil, fmt.Errorf("unknown log format %q, use json or text", c.String("log-format"))
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(formatter)
	return logger, nil
}
