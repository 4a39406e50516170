package ytdlp

import "os/exec"

// DependencyReport describes the availability of the external toolchain.
type DependencyReport struct {
	YTDLPFound  bool   `json:"yt_dlp_found"`
	YTDLPPath   string `json:"yt_dlp_path,omitempty"`
	FFmpegFound bool   `json:"ffmpeg_found"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
}

// DependencyStatus probes for yt-dlp and ffmpeg. ffmpeg is not launched by
// this program directly, but yt-dlp needs it for merging and extraction.
func (r *Runner) DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := r.Resolve(); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	return report
}
