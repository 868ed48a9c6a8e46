package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/lepinkainen/tempotweak/config"
	"github.com/lepinkainen/tempotweak/job"
	"github.com/lepinkainen/tempotweak/logging"
	"github.com/lepinkainen/tempotweak/types"
	"github.com/lepinkainen/tempotweak/ui"
	"github.com/lepinkainen/tempotweak/utils"
	"github.com/lepinkainen/tempotweak/video"
)

// ConvertCmd runs one conversion without the interactive form
type ConvertCmd struct {
	Input      string `arg:"" name:"input" help:"Video file to convert" type:"existingfile"`
	OutputDir  string `name:"output-dir" short:"o" help:"Folder for the converted file (default: the input's folder)" type:"path"`
	FPS        string `name:"fps" short:"f" help:"Target frame rate (default: ui.default_fps from the config)"`
	Yes        bool   `short:"y" help:"Confirm the overwrite and cancel prompts without asking"`
	NoProgress bool   `name:"no-progress" help:"Print status changes instead of a progress bar"`
}

// Run validates the request, asks before overwriting and follows the job to its end
func (cmd *ConvertCmd) Run(appCtx *types.AppContext) error {
	cfg := appCtx.ConfigOrDefault()
	logger := logging.NewComponentLogger(appCtx.LoggerOrNop(), "convert")

	if err := utils.ValidateFFmpegDependencies(cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath); err != nil {
		return err
	}

	req, err := cmd.request(cfg)
	if err != nil {
		return err
	}

	outputPath := job.ResolveOutputPath(req)
	if utils.IsNetworkDrive(outputPath) {
		logger.Warn("output looks like it is on a network mount", slog.String("output", outputPath))
		fmt.Println(ui.WarningStyle.Render("⚠️  Output folder is on a network drive, writing may be slow"))
	}

	prompter := NewPrompter(cmd.Yes)
	overwrite := false
	if job.OutputExists(req) {
		question := fmt.Sprintf("Output file already exists:\n%s\n\nDo you want to overwrite it?", outputPath)
		if !prompter.Confirm(question) {
			fmt.Println(ui.InfoStyle.Render("Overwrite declined, nothing was started."))
			return nil
		}
		overwrite = true
	}

	converter := video.NewFrameRateConverter(cfg, appCtx.LoggerOrNop())
	ctrl := job.NewController(converter, job.Options{
		Progress: job.ProgressSettingsFromConfig(cfg.Progress),
		Logger:   appCtx.LoggerOrNop(),
	})
	defer ctrl.Close()

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	fmt.Println(ui.HeaderStyle.Render(fmt.Sprintf("TempoTweak %s", appCtx.VersionOrDefault())))
	fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("🎬 %s → %s fps", filepath.Base(req.InputPath), job.FormatFPS(req.FPS))))

	runner := &jobRunner{
		ctrl:     ctrl,
		prompter: prompter,
		signals:  signals,
		view:     newProgressView(os.Stderr, !cmd.NoProgress && isTerminal(os.Stderr)),
		logger:   logger,
	}
	final, err := runner.run(req, overwrite)
	if err != nil {
		return err
	}
	return report(os.Stdout, final)
}

func (cmd *ConvertCmd) request(cfg *config.Config) (job.Request, error) {
	fpsText := cmd.FPS
	if strings.TrimSpace(fpsText) == "" {
		fpsText = cfg.UI.DefaultFPS
	}
	fps, err := job.ParseFPS(fpsText)
	if err != nil {
		return job.Request{}, err
	}

	outputDir := cmd.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(cmd.Input)
	}

	req := job.Request{InputPath: cmd.Input, OutputDir: outputDir, FPS: fps}
	return req, job.Validate(req)
}

// jobController is the part of job.Controller the headless runner needs
type jobController interface {
	Start(req job.Request, overwriteConfirmed bool) (string, error)
	Cancel(confirmed bool) bool
	Events() <-chan job.Event
}

type jobRunner struct {
	ctrl     jobController
	prompter Prompter
	signals  <-chan os.Signal
	view     progressView
	logger   *slog.Logger
}

// run starts the job and relays events until it reaches a terminal state.
// An interrupt opens the cancel prompt; a second interrupt while the prompt
// is open cancels without waiting for the answer.
func (r *jobRunner) run(req job.Request, overwrite bool) (job.Event, error) {
	id, err := r.ctrl.Start(req, overwrite)
	if err != nil {
		return job.Event{}, err
	}

	answers := make(chan bool, 1)
	prompting := false

	for {
		select {
		case ev, ok := <-r.ctrl.Events():
			if !ok {
				return job.Event{}, errors.New("controller closed before the job finished")
			}
			if ev.JobID != id {
				continue
			}
			r.view.Update(ev)
			if ev.State.IsTerminal() {
				r.view.Done(ev)
				return ev, nil
			}

		case sig := <-r.signals:
			if r.logger != nil {
				r.logger.Debug("signal received", slog.String("signal", sig.String()), slog.Bool("prompting", prompting))
			}
			if prompting || r.prompter.AssumeYes || !r.prompter.Interactive {
				r.ctrl.Cancel(true)
				continue
			}
			prompting = true
			go func() {
				answers <- r.prompter.Confirm("\nAre you sure you want to cancel processing?")
			}()

		case yes := <-answers:
			prompting = false
			if yes {
				r.ctrl.Cancel(true)
			}
		}
	}
}

func report(w io.Writer, ev job.Event) error {
	switch ev.State {
	case job.StateCompleted:
		fmt.Fprintln(w, ui.SuccessStyle.Render("✅ "+job.StatusComplete))
		if size, err := video.GetFileSize(ev.OutputPath); err == nil {
			fmt.Fprintf(w, "   Output saved to: %s (%s)\n", ev.OutputPath, humanize.IBytes(uint64(size)))
		} else {
			fmt.Fprintf(w, "   Output saved to: %s\n", ev.OutputPath)
		}
		return nil
	case job.StateCancelled:
		fmt.Fprintln(w, ui.ErrorStyle.Render("⏹  "+job.StatusCancelled))
		return nil
	default:
		fmt.Fprintln(w, ui.ErrorStyle.Render("❌ "+job.StatusFailed))
		if ev.Err != nil {
			return ev.Err
		}
		return errors.New(job.StatusFailed)
	}
}

// progressView renders job events in the terminal
type progressView interface {
	Update(ev job.Event)
	Done(ev job.Event)
}

func newProgressView(w io.Writer, bar bool) progressView {
	if !bar {
		return &statusLines{out: w}
	}
	return &barView{
		out: w,
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(job.StatusLoading),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "▐",
				BarEnd:        "▌",
			}),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetRenderBlankState(true),
		),
	}
}

type barView struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func (v *barView) Update(ev job.Event) {
	v.bar.Describe(ev.Status)
	_ = v.bar.Set(int(ev.Progress))
}

func (v *barView) Done(ev job.Event) {
	if ev.State == job.StateCompleted {
		_ = v.bar.Finish()
	}
	fmt.Fprintln(v.out)
}

// statusLines prints each new status label on its own line
type statusLines struct {
	out  io.Writer
	last string
}

func (s *statusLines) Update(ev job.Event) {
	if ev.Status == s.last {
		return
	}
	s.last = ev.Status
	fmt.Fprintf(s.out, "%s (%.0f%%)\n", ev.Status, ev.Progress)
}

func (s *statusLines) Done(job.Event) {}
