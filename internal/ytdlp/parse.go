package ytdlp

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Xisisrefliel/VidPull/internal/download"
)

// yt-dlp output carries no stable schema, so parsing is an ordered set of
// per-line heuristics. Rules are independent pattern checks: a single line
// may fire zero, one, or several rules, and an unrecognized line is not an
// error, just no new information.
var (
	destinationRe = regexp.MustCompile(`\[download\] Destination: (.+)$`)
	percentRe     = regexp.MustCompile(`(\d+\.?\d*)%`)
	postProcessRe = regexp.MustCompile(`^\[(ExtractAudio|Merger|Metadata|EmbedMetadata|EmbedThumbnail|VideoConvertor|VideoRemuxer|Fixup\w+)\]`)
	mergeRe       = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"`)
)

// rule pairs a line predicate with an event extractor.
type rule struct {
	match   func(line string) bool
	extract func(line string) []download.OutputEvent
}

var rules = []rule{
	{matchDestination, extractDestination},
	{matchPercent, extractPercent},
	{matchPostProcess, extractPostProcess},
	{matchMergedFile, extractMergedFile},
	{matchAlreadyDownloaded, extractAlreadyDownloaded},
	{matchError, extractError},
}

// Parser implements download.Parser. It holds no state: the same text
// always yields the same event sequence.
type Parser struct{}

// NewParser creates an output parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse splits text on newlines and applies every rule to every line,
// in rule order.
func (p *Parser) Parse(text string) []download.OutputEvent {
	var out []download.OutputEvent
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		for _, r := range rules {
			if r.match(line) {
				out = append(out, r.extract(line)...)
			}
		}
	}
	return out
}

// Rule 1: a destination line names the file being written.
func matchDestination(line string) bool {
	return destinationRe.MatchString(line)
}

func extractDestination(line string) []download.OutputEvent {
	path := strings.TrimSpace(destinationRe.FindStringSubmatch(line)[1])
	return []download.OutputEvent{
		download.FileNameEvent{Name: stripExt(path), Path: path},
		download.StatusEvent{Status: download.StatusDownloading},
	}
}

// Rule 2: a percentage token reports progress. 100% means yt-dlp moved on
// to post-processing (merging, transcoding).
func matchPercent(line string) bool {
	return percentRe.MatchString(line)
}

func extractPercent(line string) []download.OutputEvent {
	value, err := strconv.ParseFloat(percentRe.FindStringSubmatch(line)[1], 64)
	if err != nil || value < 0 || value > 100 {
		// Out-of-range or unparsable tokens are discarded silently.
		return nil
	}
	fraction := value / 100
	status := download.StatusDownloading
	if fraction >= 1.0 {
		status = download.StatusExtracting
	}
	return []download.OutputEvent{
		download.ProgressEvent{Fraction: fraction},
		download.StatusEvent{Status: status},
	}
}

// Rule 3: post-processing stage markers (audio extraction, merging,
// metadata writing).
func matchPostProcess(line string) bool {
	return postProcessRe.MatchString(line)
}

func extractPostProcess(string) []download.OutputEvent {
	return []download.OutputEvent{download.StatusEvent{Status: download.StatusExtracting}}
}

// Rule 4: the merger reports the final combined output path.
func matchMergedFile(line string) bool {
	return mergeRe.MatchString(line)
}

func extractMergedFile(line string) []download.OutputEvent {
	path := mergeRe.FindStringSubmatch(line)[1]
	return []download.OutputEvent{download.FileNameEvent{Name: stripExt(path), Path: path}}
}

// Rule 5: the target was already downloaded on a previous run.
func matchAlreadyDownloaded(line string) bool {
	return strings.Contains(line, "has already been downloaded")
}

func extractAlreadyDownloaded(string) []download.OutputEvent {
	return []download.OutputEvent{
		download.ProgressEvent{Fraction: 1.0},
		download.StatusEvent{Status: download.StatusCompleted},
	}
}

// Rule 6: error marker.
func matchError(line string) bool {
	return strings.Contains(line, "ERROR:")
}

func extractError(line string) []download.OutputEvent {
	return []download.OutputEvent{download.ErrorEvent{Line: line}}
}

func stripExt(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
