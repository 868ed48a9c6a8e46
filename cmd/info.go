package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/lepinkainen/tempotweak/types"
	"github.com/lepinkainen/tempotweak/ui"
	"github.com/lepinkainen/tempotweak/video"
)

// InfoCmd prints what the form's information panel shows, plus a few extras
type InfoCmd struct {
	Input string `arg:"" name:"input" help:"Video file to inspect" type:"existingfile"`
}

// Run probes the input and prints a table
func (cmd *InfoCmd) Run(appCtx *types.AppContext) error {
	cfg := appCtx.ConfigOrDefault()
	prober := video.Prober{FFprobePath: cfg.FFmpeg.FFprobePath}

	info, err := prober.Probe(context.Background(), cmd.Input)
	if err != nil {
		return fmt.Errorf("load video: %w", err)
	}
	size, err := video.GetFileSize(cmd.Input)
	if err != nil {
		return err
	}

	fmt.Println(ui.HeaderStyle.Render(cmd.Input))
	fmt.Println(renderInfoTable(info, size))
	return nil
}

func renderInfoTable(info *video.Info, size int64) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Property", "Value"})
	tw.AppendRows([]table.Row{
		{"Duration", fmt.Sprintf("%.2fs", info.Duration.Seconds())},
		{"Current FPS", strconv.FormatFloat(info.FrameRate, 'f', 2, 64)},
		{"Resolution", info.Resolution()},
		{"Codec", info.Codec},
		{"Audio", yesNo(info.HasAudio)},
		{"Size", humanize.IBytes(uint64(max(size, 0)))},
		{"Probed with", info.Source},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

