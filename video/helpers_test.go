package video

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const probeJSONWithAudio = `{"streams":[{"codec_type":"video","codec_name":"h264","width":1920,"height":1080,"avg_frame_rate":"30000/1001","r_frame_rate":"30000/1001"},{"codec_type":"audio","codec_name":"aac"}],"format":{"duration":"12.5"}}`

const probeJSONVideoOnly = `{"streams":[{"codec_type":"video","codec_name":"vp9","width":640,"height":360,"avg_frame_rate":"0/0","r_frame_rate":"25/1"}],"format":{"duration":"3.0"}}`

// writeScript creates an executable shell script standing in for ffmpeg or ffprobe
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Shell script fakes are not supported on Windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("Failed to write fake %s: %v", name, err)
	}
	return path
}

// fakeProbe prints the given JSON for any invocation
func fakeProbe(t *testing.T, json string) string {
	return writeScript(t, "ffprobe", fmt.Sprintf("cat <<'EOF'\n%s\nEOF\n", json))
}

// fakeFFmpeg appends its arguments to argsLog and writes "data" to its last argument
func fakeFFmpeg(t *testing.T, argsLog string) string {
	return writeScript(t, "ffmpeg", fmt.Sprintf(`for last; do :; done
echo "$*" >> '%s'
printf 'data' > "$last"
`, argsLog))
}

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	return path
}
