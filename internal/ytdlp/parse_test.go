package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xisisrefliel/VidPull/internal/download"
)

func TestParse_Destination(t *testing.T) {
	p := NewParser()

	events := p.Parse("[download] Destination: /tmp/My Video.mp4")

	require.Len(t, events, 2)
	assert.Equal(t, download.FileNameEvent{Name: "My Video", Path: "/tmp/My Video.mp4"}, events[0])
	assert.Equal(t, download.StatusEvent{Status: download.StatusDownloading}, events[1])
}

func TestParse_Progress(t *testing.T) {
	p := NewParser()

	events := p.Parse("[download]  45.2% of 10.00MiB at 1.00MiB/s ETA 00:05")

	require.Len(t, events, 2)
	assert.Equal(t, download.ProgressEvent{Fraction: 0.452}, events[0])
	assert.Equal(t, download.StatusEvent{Status: download.StatusDownloading}, events[1])
}

func TestParse_ProgressComplete(t *testing.T) {
	p := NewParser()

	events := p.Parse("[download] 100% of 10.00MiB in 00:10")

	require.Len(t, events, 2)
	assert.Equal(t, download.ProgressEvent{Fraction: 1.0}, events[0])
	// 100% means yt-dlp is post-processing now.
	assert.Equal(t, download.StatusEvent{Status: download.StatusExtracting}, events[1])
}

func TestParse_ProgressOutOfRange(t *testing.T) {
	p := NewParser()

	// Out-of-range tokens are discarded silently, no event for the line.
	assert.Empty(t, p.Parse("[download] 250% of something weird"))
}

func TestParse_PostProcessing(t *testing.T) {
	p := NewParser()

	lines := []string{
		"[ExtractAudio] Destination extraction in progress",
		"[Metadata] Adding metadata to: /tmp/a.mp4",
		"[EmbedThumbnail] ffmpeg: Adding thumbnail",
		"[FixupM4a] Correcting container of \"/tmp/a.m4a\"",
	}
	for _, line := range lines {
		events := p.Parse(line)
		require.NotEmpty(t, events, "line %q", line)
		assert.Contains(t, events, download.OutputEvent(download.StatusEvent{Status: download.StatusExtracting}), "line %q", line)
	}
}

func TestParse_MergerLine(t *testing.T) {
	p := NewParser()

	events := p.Parse(`[Merger] Merging formats into "/tmp/My Video.mkv"`)

	// One line can fire several rules: stage marker plus merged filename.
	require.Len(t, events, 2)
	assert.Equal(t, download.StatusEvent{Status: download.StatusExtracting}, events[0])
	assert.Equal(t, download.FileNameEvent{Name: "My Video", Path: "/tmp/My Video.mkv"}, events[1])
}

func TestParse_AlreadyDownloaded(t *testing.T) {
	p := NewParser()

	events := p.Parse("[download] /tmp/My Video.mp4 has already been downloaded")

	require.Len(t, events, 2)
	assert.Equal(t, download.ProgressEvent{Fraction: 1.0}, events[0])
	assert.Equal(t, download.StatusEvent{Status: download.StatusCompleted}, events[1])
}

func TestParse_ErrorMarker(t *testing.T) {
	p := NewParser()

	events := p.Parse("ERROR: [youtube] abc123: Video unavailable")

	require.Len(t, events, 1)
	assert.Equal(t, download.ErrorEvent{Line: "ERROR: [youtube] abc123: Video unavailable"}, events[0])
}

func TestParse_UnrecognizedLinesAreSilent(t *testing.T) {
	p := NewParser()

	text := "[youtube] abc123: Downloading webpage\n" +
		"[info] abc123: Downloading 1 format(s): 137+140\n" +
		"\n" +
		"some random noise"

	assert.Empty(t, p.Parse(text))
}

func TestParse_MultiLineFeed(t *testing.T) {
	p := NewParser()

	text := "[download] Destination: /tmp/clip.webm\n" +
		"[download]  10.0% of 5.00MiB\n" +
		"[download] 100% of 5.00MiB\n" +
		"[Merger] Merging formats into \"/tmp/clip.mkv\""

	events := p.Parse(text)
	require.Len(t, events, 8)
	assert.Equal(t, download.FileNameEvent{Name: "clip", Path: "/tmp/clip.webm"}, events[0])
	assert.Equal(t, download.ProgressEvent{Fraction: 0.1}, events[2])
	assert.Equal(t, download.ProgressEvent{Fraction: 1.0}, events[4])
	assert.Equal(t, download.StatusEvent{Status: download.StatusExtracting}, events[5])
}

func TestParse_Idempotent(t *testing.T) {
	text := "[download] Destination: /tmp/a.mp4\n" +
		"[download]  45.2% of 10.00MiB\n" +
		"ERROR: network timeout"

	first := NewParser().Parse(text)
	second := NewParser().Parse(text)

	assert.Equal(t, first, second)
}

func TestParse_CarriageReturnProgress(t *testing.T) {
	p := NewParser()

	// Progress lines arrive CR-terminated when not using --newline.
	events := p.Parse("[download]  33.3% of 9.00MiB\r")

	require.Len(t, events, 2)
	assert.Equal(t, download.ProgressEvent{Fraction: 0.333}, events[0])
}
