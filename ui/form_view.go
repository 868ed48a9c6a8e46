package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/tempotweak/job"
	"github.com/lepinkainen/tempotweak/video"
)

var fieldLabels = [fieldCount]string{"Input video", "Output folder", "Target FPS"}

// View implements tea.Model
func (m FormModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	switch m.pane {
	case paneInputPicker:
		return m.pickerView("Select Video File", "enter: choose file • esc: back")
	case paneFolderPicker:
		return m.pickerView("Select Output Folder", "enter: open folder • s: use current folder • esc: back")
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("TempoTweak - Video FPS Changer"))
	b.WriteString("\n")

	for i, label := range fieldLabels {
		style := LabelStyle
		if i == m.focus {
			style = FocusedLabelStyle
		}
		b.WriteString(style.Render(label))
		b.WriteString(m.inputs[i].View())
		if i == fieldFPS {
			b.WriteString(HelpStyle.Render("   presets: " + m.presetList()))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.infoView())
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.snapshot.Progress / 100))
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")

	if m.message != "" {
		style := SuccessStyle
		if m.isError {
			style = ErrorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.message))
		b.WriteString("\n")
	}

	if d := m.dialogView(); d != "" {
		b.WriteString(d)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.helpText()))
	return b.String()
}

func (m FormModel) pickerView(title, help string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render(title),
		InfoStyle.Render(m.picker.CurrentDirectory),
		m.picker.View(),
		HelpStyle.Render(help),
	)
}

func (m FormModel) infoView() string {
	switch {
	case m.infoErr != nil:
		return ErrorStyle.Render(fmt.Sprintf("Error loading video: %v", m.infoErr))
	case m.info != nil:
		return InfoStyle.Render(FormatInfo(m.info))
	case m.infoPath != "":
		return HelpStyle.Render("Loading video information...")
	default:
		return HelpStyle.Render("No video selected")
	}
}

func (m FormModel) statusView() string {
	status := m.snapshot.Status
	if status == "" {
		status = job.StatusReady
	}
	text := StatusStyle(m.snapshot.State).Render(status)
	if m.snapshot.State == job.StateRunning {
		return fmt.Sprintf("%s %s %s", m.spinner.View(), text, HelpStyle.Render(fmt.Sprintf("%.0f%%", m.snapshot.Progress)))
	}
	return text
}

func (m FormModel) dialogView() string {
	switch m.dialog {
	case dialogOverwrite:
		body := fmt.Sprintf("Output file already exists:\n%s\n\nDo you want to overwrite it? (y/n)", job.ResolveOutputPath(m.pending))
		return DialogStyle.Render(WarningStyle.Render("File Exists") + "\n\n" + body)
	case dialogCancel:
		body := "Are you sure you want to cancel processing? (y/n)"
		return DialogStyle.Render(WarningStyle.Render("Cancel") + "\n\n" + body)
	}
	return ""
}

func (m FormModel) helpText() string {
	if m.snapshot.State == job.StateRunning {
		return "esc: cancel processing • ctrl+c: cancel and quit"
	}
	return "tab: next field • ↑/↓ on FPS: presets • ctrl+o: browse video • ctrl+d: browse folder • enter: start • ctrl+c: quit"
}

func (m FormModel) presetList() string {
	parts := make([]string, len(m.presets))
	for i, p := range m.presets {
		parts[i] = job.FormatFPS(p)
	}
	return strings.Join(parts, " ")
}

// FormatInfo renders the one-line information panel text
func FormatInfo(info *video.Info) string {
	return fmt.Sprintf("Duration: %.2fs | Current FPS: %.2f | Resolution: %s",
		info.Duration.Seconds(),
		info.FrameRate,
		info.Resolution())
}
