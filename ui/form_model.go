package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/tempotweak/job"
	"github.com/lepinkainen/tempotweak/logging"
	"github.com/lepinkainen/tempotweak/video"
)

const probeTimeout = 30 * time.Second

// JobController is the part of job.Controller the form drives
type JobController interface {
	Start(req job.Request, overwriteConfirmed bool) (string, error)
	Cancel(confirmed bool) bool
	Events() <-chan job.Event
	Snapshot() job.Snapshot
}

// VideoProber loads the video information panel
type VideoProber interface {
	Probe(ctx context.Context, path string) (*video.Info, error)
}

const (
	fieldInput = iota
	fieldOutput
	fieldFPS
	fieldCount
)

type pane int

const (
	paneForm pane = iota
	paneInputPicker
	paneFolderPicker
)

type dialog int

const (
	dialogNone dialog = iota
	dialogOverwrite
	dialogCancel
)

// FormOptions seeds the form fields
type FormOptions struct {
	InputPath  string
	OutputDir  string
	DefaultFPS string
	Presets    []float64
	Logger     *slog.Logger
}

// FormModel is the interactive conversion form. It never blocks: the job runs
// in the controller and every change arrives as a JobEventMsg.
type FormModel struct {
	controller JobController
	prober     VideoProber
	presets    []float64
	logger     *slog.Logger

	inputs []textinput.Model
	focus  int

	pane   pane
	picker filepicker.Model

	progress progress.Model
	spinner  spinner.Model

	infoPath string
	info     *video.Info
	infoErr  error

	snapshot job.Snapshot
	message  string
	isError  bool

	dialog          dialog
	pending         job.Request
	quitAfterCancel bool

	eventsClosed bool
	width        int
	height       int
	quitting     bool
}

// NewFormModel creates the form around a controller
func NewFormModel(controller JobController, prober VideoProber, opts FormOptions) FormModel {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 4096
		ti.Width = 60
		inputs[i] = ti
	}

	inputs[fieldInput].Placeholder = "path/to/video.mp4  (ctrl+o to browse)"
	inputs[fieldInput].SetValue(opts.InputPath)
	inputs[fieldOutput].Placeholder = "output folder  (ctrl+d to browse)"
	inputs[fieldOutput].SetValue(opts.OutputDir)
	inputs[fieldFPS].Placeholder = "30"
	inputs[fieldFPS].CharLimit = 12
	inputs[fieldFPS].Width = 12
	inputs[fieldFPS].SetValue(opts.DefaultFPS)
	inputs[fieldInput].Focus()

	presets := opts.Presets
	if len(presets) == 0 {
		presets = []float64{4, 24, 30, 60, 120}
	}

	return FormModel{
		controller: controller,
		prober:     prober,
		presets:    presets,
		logger:     logging.NewComponentLogger(opts.Logger, "ui"),
		inputs:     inputs,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		snapshot:   controller.Snapshot(),
	}
}

// Init implements tea.Model
func (m FormModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForEvent(m.controller.Events())}
	if path := m.inputValue(fieldInput); path != "" {
		cmds = append(cmds, loadInfo(m.prober, path))
	}
	return tea.Batch(cmds...)
}

// infoLoadingFor clears the panel and records which path the next
// VideoInfoMsg must match
func (m *FormModel) infoLoadingFor(path string) {
	m.infoPath = path
	m.info = nil
	m.infoErr = nil
}

// Update implements tea.Model
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = min(max(msg.Width-24, 20), 80)
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case JobEventMsg:
		return m.handleJobEvent(msg.Event)

	case EventsClosedMsg:
		m.eventsClosed = true
		return m, nil

	case VideoInfoMsg:
		// the seeded input is probed from Init, before infoPath is known
		if m.infoPath == "" || msg.Path == m.infoPath {
			m.infoPath = msg.Path
			m.info, m.infoErr = msg.Info, msg.Err
		}
		return m, nil

	case spinner.TickMsg:
		// stop the tick chain when nothing is running
		if m.snapshot.State != job.StateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.dialog != dialogNone {
			return m.handleDialogInput(msg)
		}
		if m.pane != paneForm {
			return m.handlePickerInput(msg)
		}
		return m.handleFormInput(msg)
	}

	// directory listings and cursor blinks
	var cmd tea.Cmd
	if m.pane != paneForm {
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m FormModel) handleFormInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	running := m.snapshot.State == job.StateRunning

	switch msg.String() {
	case "ctrl+c":
		if running {
			m.dialog = dialogCancel
			m.quitAfterCancel = true
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if running {
			m.dialog = dialogCancel
			return m, nil
		}
		m.message = ""
		return m, nil

	case "tab", "down":
		if msg.String() == "down" && m.focus == fieldFPS {
			m.stepPreset(1)
			return m, nil
		}
		return m.moveFocus(1)

	case "shift+tab", "up":
		if msg.String() == "up" && m.focus == fieldFPS {
			m.stepPreset(-1)
			return m, nil
		}
		return m.moveFocus(-1)

	case "ctrl+o":
		return m.openPicker(paneInputPicker)

	case "ctrl+d":
		return m.openPicker(paneFolderPicker)

	case "enter", "ctrl+s":
		return m.submit()
	}

	var cmd tea.Cmd
	if m.focus == fieldFPS {
		// only accept keystrokes that leave a number behind
		prev := m.inputs[fieldFPS].Value()
		m.inputs[fieldFPS], cmd = m.inputs[fieldFPS].Update(msg)
		if v := m.inputs[fieldFPS].Value(); v != "" && !isNumeric(v) {
			m.inputs[fieldFPS].SetValue(prev)
		}
		return m, cmd
	}
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m FormModel) handleDialogInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	current := m.dialog
	switch msg.String() {
	case "y", "Y":
		m.dialog = dialogNone
		if current == dialogOverwrite {
			return m.start(m.pending, true)
		}
		if !m.controller.Cancel(true) && m.quitAfterCancel {
			// the job finished while the dialog was open
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case "n", "N", "esc", "ctrl+c":
		m.dialog = dialogNone
		m.quitAfterCancel = false
		if current == dialogOverwrite {
			m.pending = job.Request{}
			m.setMessage("Overwrite declined, nothing was started.", false)
		}
	}
	return m, nil
}

func (m FormModel) handlePickerInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return m.closePicker()
	case "s":
		if m.pane == paneFolderPicker {
			m.inputs[fieldOutput].SetValue(m.picker.CurrentDirectory)
			return m.closePicker()
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if m.pane == paneInputPicker {
		if ok, path := m.picker.DidSelectFile(msg); ok {
			m.inputs[fieldInput].SetValue(path)
			if m.inputValue(fieldOutput) == "" {
				m.inputs[fieldOutput].SetValue(filepath.Dir(path))
			}
			m.infoLoadingFor(path)
			next, closeCmd := m.closePicker()
			return next, tea.Batch(closeCmd, loadInfo(m.prober, path))
		}
		if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
			m.setMessage(fmt.Sprintf("%s is not a supported video file.", filepath.Base(path)), true)
		}
	}
	return m, cmd
}

func (m FormModel) openPicker(target pane) (tea.Model, tea.Cmd) {
	fp := filepicker.New()
	fp.Height = max(m.height-10, 5)
	fp.CurrentDirectory = pickerStartDir(m.inputValue(fieldInput), m.inputValue(fieldOutput), target)
	if target == paneInputPicker {
		fp.AllowedTypes = video.VideoExtensions()
		fp.FileAllowed = true
		fp.DirAllowed = false
	} else {
		fp.FileAllowed = false
		fp.DirAllowed = true
	}

	m.picker = fp
	m.pane = target
	m.inputs[m.focus].Blur()
	return m, m.picker.Init()
}

func (m FormModel) closePicker() (tea.Model, tea.Cmd) {
	m.pane = paneForm
	return m, m.inputs[m.focus].Focus()
}

func (m FormModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == fieldInput {
		cmd = m.refreshInfo()
	}
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	return m, tea.Batch(cmd, m.inputs[m.focus].Focus())
}

// refreshInfo reloads the information panel when a typed input path changed
func (m *FormModel) refreshInfo() tea.Cmd {
	path := m.inputValue(fieldInput)
	if path == "" || path == m.infoPath {
		return nil
	}
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return nil
	}
	m.infoLoadingFor(path)
	return loadInfo(m.prober, path)
}

// stepPreset moves the FPS field to the next or previous preset
func (m *FormModel) stepPreset(delta int) {
	current, err := strconv.ParseFloat(m.inputValue(fieldFPS), 64)
	idx := -1
	if err == nil {
		for i, p := range m.presets {
			if p == current {
				idx = i
				break
			}
		}
	}

	switch {
	case idx == -1 && delta > 0:
		idx = 0
	case idx == -1:
		idx = len(m.presets) - 1
	default:
		idx = (idx + delta + len(m.presets)) % len(m.presets)
	}
	m.inputs[fieldFPS].SetValue(job.FormatFPS(m.presets[idx]))
}

func (m FormModel) submit() (tea.Model, tea.Cmd) {
	if m.snapshot.State == job.StateRunning {
		m.setMessage("A conversion is already running.", true)
		return m, nil
	}

	fps, _ := job.ParseFPS(m.inputValue(fieldFPS))
	req := job.Request{
		InputPath: m.inputValue(fieldInput),
		OutputDir: m.inputValue(fieldOutput),
		FPS:       fps,
	}
	if err := job.Validate(req); err != nil {
		m.showError(err)
		return m, nil
	}
	return m.start(req, false)
}

func (m FormModel) start(req job.Request, overwriteConfirmed bool) (tea.Model, tea.Cmd) {
	id, err := m.controller.Start(req, overwriteConfirmed)
	switch {
	case errors.Is(err, job.ErrOverwriteDeclined):
		m.pending = req
		m.dialog = dialogOverwrite
		return m, nil
	case err != nil:
		m.showError(err)
		return m, nil
	}

	m.logger.Debug("job submitted", slog.String("job_id", id))
	m.pending = job.Request{}
	m.message = ""
	m.snapshot = m.controller.Snapshot()
	return m, m.spinner.Tick
}

func (m FormModel) handleJobEvent(ev job.Event) (tea.Model, tea.Cmd) {
	next := waitForEvent(m.controller.Events())

	// ignore stragglers from an earlier job
	if ev.JobID != "" && m.snapshot.JobID != "" && ev.JobID != m.snapshot.JobID && ev.State != job.StateRunning {
		return m, next
	}

	m.snapshot = job.Snapshot{
		JobID:      ev.JobID,
		State:      ev.State,
		Progress:   ev.Progress,
		Status:     ev.Status,
		OutputPath: ev.OutputPath,
		Err:        ev.Err,
	}

	switch ev.State {
	case job.StateCompleted:
		m.setMessage(fmt.Sprintf("Video processing completed successfully!\nOutput saved to:\n%s", ev.OutputPath), false)
	case job.StateFailed:
		m.setMessage(fmt.Sprintf("An error occurred during processing:\n%v", ev.Err), true)
	case job.StateCancelled:
		m.setMessage("Processing was cancelled.", true)
	}

	if ev.State.IsTerminal() {
		m.dialog = dialogNone
		if m.quitAfterCancel {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, next
}

func (m *FormModel) showError(err error) {
	var vErr *job.ValidationError
	if errors.As(err, &vErr) {
		switch vErr.Field {
		case "input":
			m.setFocus(fieldInput)
		case "output":
			m.setFocus(fieldOutput)
		case "fps":
			m.setFocus(fieldFPS)
		}
		m.setMessage(vErr.Message, true)
		return
	}
	m.setMessage(err.Error(), true)
}

func (m *FormModel) setFocus(field int) {
	m.inputs[m.focus].Blur()
	m.focus = field
	m.inputs[m.focus].Focus()
}

func (m *FormModel) setMessage(text string, isError bool) {
	m.message = text
	m.isError = isError
}

func (m FormModel) inputValue(field int) string {
	return strings.TrimSpace(m.inputs[field].Value())
}

// waitForEvent blocks on the controller's event stream; it is re-armed after
// every event so exactly one read is pending at a time
func waitForEvent(events <-chan job.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return JobEventMsg{Event: ev}
	}
}

func loadInfo(prober VideoProber, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		info, err := prober.Probe(ctx, path)
		return VideoInfoMsg{Path: path, Info: info, Err: err}
	}
}

func pickerStartDir(input, output string, target pane) string {
	candidates := []string{output, filepath.Dir(input)}
	if target == paneInputPicker && input != "" {
		candidates = []string{filepath.Dir(input), output}
	}
	for _, dir := range candidates {
		if dir == "" || dir == "." {
			continue
		}
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
