package job

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInput marks every validation failure. Use errors.Is to test for it.
	ErrInvalidInput = errors.New("invalid input")
	// ErrJobRunning is returned by Start while another job is in StateRunning
	ErrJobRunning = errors.New("a job is already running")
	// ErrOverwriteDeclined is returned by Start when the output exists and overwrite was not confirmed
	ErrOverwriteDeclined = errors.New("output file already exists and overwrite was not confirmed")
	// ErrOutputLocked is returned by Start when another process is writing the same output
	ErrOutputLocked = errors.New("output file is being written by another process")
)

// ValidationError describes which request field was rejected and why
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets errors.Is(err, ErrInvalidInput) match
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Request is one conversion request. It is not modified once a job starts.
type Request struct {
	InputPath string
	OutputDir string
	FPS       float64
}

// ParseFPS converts the text of the FPS field into a frame rate
func ParseFPS(text string) (float64, error) {
	fps, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return 0, &ValidationError{Field: "fps", Message: "Please enter a valid FPS value (greater than 0)."}
	}
	return fps, nil
}

// FormatFPS renders a frame rate in its shortest decimal form ("30", "29.97")
func FormatFPS(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

// Validate checks the request without side effects
func Validate(req Request) error {
	if strings.TrimSpace(req.InputPath) == "" {
		return &ValidationError{Field: "input", Message: "Please select an input video file."}
	}
	if fi, err := os.Stat(req.InputPath); err != nil || fi.IsDir() {
		return &ValidationError{Field: "input", Message: "Input video file does not exist."}
	}

	if strings.TrimSpace(req.OutputDir) == "" {
		return &ValidationError{Field: "output", Message: "Please select an output folder."}
	}
	if fi, err := os.Stat(req.OutputDir); err != nil || !fi.IsDir() {
		return &ValidationError{Field: "output", Message: "Output folder does not exist."}
	}

	if math.IsNaN(req.FPS) || math.IsInf(req.FPS, 0) || req.FPS <= 0 {
		return &ValidationError{Field: "fps", Message: "Please enter a valid FPS value (greater than 0)."}
	}
	return nil
}

// ResolveOutputPath derives <output dir>/<input base>_<fps>fps<input ext>.
// It is a pure function of the request.
func ResolveOutputPath(req Request) string {
	base := filepath.Base(req.InputPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(req.OutputDir, fmt.Sprintf("%s_%sfps%s", name, FormatFPS(req.FPS), ext))
}

// OutputExists reports whether the resolved output path is already taken
func OutputExists(req Request) bool {
	_, err := os.Stat(ResolveOutputPath(req))
	return err == nil
}
