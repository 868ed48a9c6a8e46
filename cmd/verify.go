package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/tempotweak/types"
	"github.com/lepinkainen/tempotweak/ui"
	"github.com/lepinkainen/tempotweak/video"
)

// VerifyCmd checks that a converted file is readable and still shows the same
// picture as its source. A frame rate change keeps timestamps, so the frame at
// the same position should hash alike.
type VerifyCmd struct {
	Source    string `arg:"" name:"source" help:"Original video" type:"existingfile"`
	Converted string `arg:"" name:"converted" help:"Converted video" type:"existingfile"`
	Threshold int    `help:"Maximum Hamming distance between frame hashes (0-64)" default:"10"`
}

// Run validates the converted file and compares one frame of each video
func (cmd *VerifyCmd) Run(appCtx *types.AppContext) error {
	cfg := appCtx.ConfigOrDefault()
	ctx := context.Background()
	prober := video.Prober{FFprobePath: cfg.FFmpeg.FFprobePath}

	fmt.Printf("%s\n", ui.InfoStyle.Render(fmt.Sprintf("Verifying %s...", cmd.Converted)))

	if err := prober.ValidateVideoIntegrity(ctx, cmd.Converted); err != nil {
		fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %s: %v", cmd.Converted, err)))
		return fmt.Errorf("converted file failed validation: %w", err)
	}

	converted, err := prober.Probe(ctx, cmd.Converted)
	if err != nil {
		return err
	}
	fmt.Printf("   %s\n", ui.FormatInfo(converted))

	hasher := video.FrameHasher{FFmpegPath: cfg.FFmpeg.FFmpegPath}
	cmp, err := hasher.Compare(ctx, cmd.Source, cmd.Converted, video.SamplePosition(converted.Duration))
	if err != nil {
		return err
	}

	if cmp.Distance > cmd.Threshold {
		fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ Frames at %s differ (distance %d > %d)", cmp.Position, cmp.Distance, cmd.Threshold)))
		return fmt.Errorf("frame distance %d exceeds threshold %d", cmp.Distance, cmd.Threshold)
	}

	fmt.Printf("%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ Frames at %s match (distance %d)", cmp.Position, cmp.Distance)))
	return nil
}
