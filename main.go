package main

import (
	_ "image/jpeg"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/tempotweak/cmd"
	"github.com/lepinkainen/tempotweak/config"
	"github.com/lepinkainen/tempotweak/logging"
	"github.com/lepinkainen/tempotweak/types"
)

var Version = "dev"

type CLI struct {
	Config   string           `help:"Config file (default: ~/.config/tempotweak/config.toml, then ./tempotweak.toml)" type:"path" placeholder:"FILE"`
	LogLevel string           `name:"log-level" help:"Override logging.level (debug, info, warn, error)" placeholder:"LEVEL"`
	LogFile  string           `name:"log-file" help:"Write logs to this file instead of stderr" type:"path" placeholder:"FILE"`
	Version  kong.VersionFlag `help:"Print version and exit"`

	UI      cmd.UICmd      `cmd:"" default:"withargs" help:"Open the interactive form (default)"`
	Convert cmd.ConvertCmd `cmd:"" help:"Convert one video at a new frame rate without the form"`
	Info    cmd.InfoCmd    `cmd:"" help:"Show duration, frame rate and resolution of a video"`
	Verify  cmd.VerifyCmd  `cmd:"" help:"Check a converted video against its source"`
}

// newAppContext loads the config and builds the logger for the selected command.
// The form owns the terminal, so its logs go to a file unless one is configured.
func (cli *CLI) newAppContext(command string) (*types.AppContext, func() error, error) {
	noop := func() error { return nil }

	cfg, path, exists, err := config.Load(cli.Config)
	if err != nil {
		return nil, noop, err
	}

	if level := strings.ToLower(strings.TrimSpace(cli.LogLevel)); level != "" {
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			return nil, noop, err
		}
	}

	logFile := cfg.Logging.File
	if cli.LogFile != "" {
		logFile = cli.LogFile
	}
	if logFile == "" && isFormCommand(command) {
		logFile = logging.DefaultFile()
	}

	logger, closeLog, err := logging.New(logging.Options{Level: cfg.Logging.Level, File: logFile})
	if err != nil {
		return nil, noop, err
	}
	logger.Debug("configuration loaded",
		slog.String("path", path),
		slog.Bool("exists", exists),
		slog.String("command", command))

	return &types.AppContext{
		Version:    Version,
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
	}, closeLog, nil
}

func isFormCommand(command string) bool {
	return command == "ui" || strings.HasPrefix(command, "ui ")
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tempotweak"),
		kong.Description("Re-encode a video at a new frame rate."),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
	)

	appCtx, closeLog, err := cli.newAppContext(ctx.Command())
	ctx.FatalIfErrorf(err)

	err = ctx.Run(appCtx)
	_ = closeLog()
	ctx.FatalIfErrorf(err)
}
