package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-hclog"

	"github.com/lepinkainen/ffsimple/cmd"
	"github.com/lepinkainen/ffsimple/config"
	"github.com/lepinkainen/ffsimple/probe"
	"github.com/lepinkainen/ffsimple/types"
	"github.com/lepinkainen/ffsimple/ui"
	"github.com/lepinkainen/ffsimple/utils"
)

var Version = "dev"

type CLI struct {
	Config  kong.ConfigFlag  `help:"Config file with flag defaults and presets"`
	Verbose bool             `short:"v" help:"Show ffmpeg command lines, stderr and debug logs"`
	Silent  bool             `short:"s" help:"No progress, prompts or summaries"`
	FFmpeg  string           `name:"ffmpeg" help:"ffmpeg binary" placeholder:"PATH"`
	FFprobe string           `name:"ffprobe" help:"ffprobe binary" placeholder:"PATH"`
	Timeout time.Duration    `help:"Abort a single ffmpeg run after this long (0 disables)"`
	Preset  string           `help:"Named preset from the config file, applied beneath explicit flags"`
	Version kong.VersionFlag `help:"Show version"`

	Convert    cmd.ConvertCmd    `cmd:"" help:"Convert files with ffmpeg"`
	Probe      cmd.ProbeCmd      `cmd:"" help:"Print media metadata as JSON"`
	Concat     cmd.ConcatCmd     `cmd:"" help:"Join files into one"`
	Cut        cmd.CutCmd        `cmd:"" help:"Extract a time range"`
	Sample     cmd.SampleCmd     `cmd:"" help:"Cut a short clip from the middle of each file"`
	RotateMeta cmd.RotateMetaCmd `cmd:"" name:"rotate-meta" help:"Set the rotation tag without re-encoding"`
	Caption    cmd.CaptionCmd    `cmd:"" help:"Add subtitles to a video"`
	Batch      cmd.BatchCmd      `cmd:"" help:"Run jobs from a YAML or JSON file"`
	Gif        cmd.GifCmd        `cmd:"" help:"Convert clips to looping gifs"`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("ffsimple"),
		kong.Description("Common ffmpeg jobs with progress, presets and safe output handling."),
		kong.UsageOnError(),
		kong.Configuration(config.Resolver, config.Locations()...),
		kong.Vars{"version": Version},
	}, options...)
	return kong.New(cli, options...)
}

func newLogger(cli *CLI) hclog.Logger {
	level := hclog.Warn
	switch {
	case cli.Silent:
		level = hclog.Off
	case cli.Verbose:
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "ffsimple",
		Level:  level,
		Output: os.Stderr,
	})
}

func newAppContext(cli *CLI) (*types.AppContext, error) {
	cfg, err := config.Load(string(cli.Config))
	if err != nil {
		return nil, err
	}

	bins := utils.Binaries{FFmpeg: cli.FFmpeg, FFprobe: cli.FFprobe}
	if bins.FFmpeg == "" {
		bins.FFmpeg = cfg.FFmpeg
	}
	if bins.FFprobe == "" {
		bins.FFprobe = cfg.FFprobe
	}

	return &types.AppContext{
		Version:  Version,
		Logger:   newLogger(cli),
		Config:   cfg,
		Cache:    probe.NewCache(),
		Binaries: bins.WithDefaults(),
		Timeout:  cli.Timeout,
		Preset:   cli.Preset,
		Verbose:  cli.Verbose,
		Silent:   cli.Silent,
		Out:      os.Stdout,
	}, nil
}

func main() {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	parser, err := newParser(&cli, kong.BindTo(sigCtx, (*context.Context)(nil)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	appCtx, err := newAppContext(&cli)
	ctx.FatalIfErrorf(err)
	if err := utils.ValidateFFmpegDependencies(appCtx.Binaries); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("❌ "+err.Error()))
		os.Exit(1)
	}

	err = ctx.Run(appCtx)
	if err != nil && !cli.Silent {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("❌ "+err.Error()))
		os.Exit(1)
	}
	ctx.FatalIfErrorf(err)
}
