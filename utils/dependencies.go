package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// ValidateFFmpegDependencies checks that the configured ffmpeg and ffprobe
// binaries can be found. Empty names fall back to the PATH defaults.
func ValidateFFmpegDependencies(ffmpegPath, ffprobePath string) error {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	if _, err := exec.LookPath(ffprobePath); err != nil {
		return fmt.Errorf("%s not found in PATH. %s", ffprobePath, getInstallationInstructions())
	}

	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return fmt.Errorf("%s not found in PATH. %s", ffmpegPath, getInstallationInstructions())
	}

	return nil
}

// getInstallationInstructions returns platform-specific installation instructions
func getInstallationInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install with: brew install ffmpeg"
	case "linux":
		return "Install with: apt-get install ffmpeg (Ubuntu/Debian) or dnf install ffmpeg (Fedora)"
	case "windows":
		return "Download from https://ffmpeg.org/download.html and add to PATH"
	default:
		return "Download from https://ffmpeg.org/download.html"
	}
}
