package video

import (
	"fmt"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

// ProbeMP4 reads Info straight from the moov box of a progressive MP4/MOV
// file. It is the fallback for systems without ffprobe.
func ProbeMP4(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if mp4File.IsFragmented() || mp4File.Moov == nil {
		return nil, fmt.Errorf("fragmented mp4 is not supported without ffprobe")
	}

	info := &Info{Source: "mp4"}
	foundVideo := false

	for _, trak := range mp4File.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
			continue
		}

		switch trak.Mdia.Hdlr.HandlerType {
		case "soun":
			info.HasAudio = true
		case "vide":
			if foundVideo {
				continue
			}
			foundVideo = true

			if trak.Tkhd != nil {
				// tkhd stores 16.16 fixed point
				info.Width = int(uint32(trak.Tkhd.Width) >> 16)
				info.Height = int(uint32(trak.Tkhd.Height) >> 16)
			}

			var timescale uint32
			var duration uint64
			if trak.Mdia.Mdhd != nil {
				timescale = trak.Mdia.Mdhd.Timescale
				duration = trak.Mdia.Mdhd.Duration
			}
			if timescale > 0 {
				info.Duration = time.Duration(float64(duration) / float64(timescale) * float64(time.Second))
			}

			if minf := trak.Mdia.Minf; minf != nil && minf.Stbl != nil {
				if minf.Stbl.Stsz != nil && duration > 0 && timescale > 0 {
					samples := float64(minf.Stbl.Stsz.SampleNumber)
					info.FrameRate = samples * float64(timescale) / float64(duration)
				}
				if minf.Stbl.Stsd != nil && len(minf.Stbl.Stsd.Children) > 0 {
					info.Codec = codecFromSampleEntry(minf.Stbl.Stsd.Children[0].Type())
				}
			}
		}
	}

	if !foundVideo {
		return nil, fmt.Errorf("no video track found")
	}
	return info, nil
}

func codecFromSampleEntry(entry string) string {
	switch entry {
	case "avc1", "avc3":
		return "h264"
	case "hvc1", "hev1":
		return "hevc"
	case "av01":
		return "av1"
	case "vp09":
		return "vp9"
	case "mp4v":
		return "mpeg4"
	default:
		return entry
	}
}
