package ytdlp

import "github.com/Xisisrefliel/VidPull/internal/download"

// DefaultFormat is used when a job carries no format selector.
const DefaultFormat = "bv*+ba/b"

// BuildArgs constructs the yt-dlp argument vector for one job.
// --newline forces line-oriented progress output so the parser sees one
// progress report per line.
func BuildArgs(spec download.RunSpec) []string {
	format := spec.Format
	if format == "" {
		format = DefaultFormat
	}

	args := []string{
		"--newline",
		"-f", format,
	}
	if spec.OutputDir != "" {
		args = append(args, "-P", spec.OutputDir)
	}
	args = append(args, "-o", "%(title)s.%(ext)s")
	if spec.Playlist {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}
	return append(args, spec.URL)
}
