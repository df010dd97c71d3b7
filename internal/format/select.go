package format

import (
	"fmt"
	"strings"

	"mp4get/internal/services"
)

// GenericExpression is the fallback format expression handed to the
// retrieval engine when no candidate list is available.
const GenericExpression = "bestvideo*+bestaudio/bestvideo+bestaudio/best"

// Options tunes the selection policy. All fields come from configuration.
type Options struct {
	// MaxHeight caps the acceptable resolution; 0 means unlimited.
	MaxHeight int
	// ExcludedProtocols are skipped entirely (unreliable for restricted
	// delivery).
	ExcludedProtocols []string
	// Exclude lists stream descriptors that failed earlier in the run and
	// must not be chosen again.
	Exclude []string
}

// Selection is the outcome of the policy: a primary stream, an optional
// audio stream to merge, and the fallback expression for the retrieval
// engine.
type Selection struct {
	Primary Candidate
	// Audio is set when the primary stream is video-only and needs a
	// merge.
	Audio *Candidate
	// Expression is the engine-facing format spec, including fallbacks.
	Expression string
	// Strategy describes the choice for logs and the run report.
	Strategy string
}

// Select applies the preference policy to the candidate set.
//
// A combined representation wins when its resolution rank is not worse than
// the best video-only representation. Otherwise the best video-only stream
// is paired with the best audio-only stream. Ties break toward higher frame
// rate, then bitrate, then the first-listed candidate. An empty or fully
// excluded set is a per-item failure, never a run failure.
func Select(candidates []Candidate, opts Options) (Selection, error) {
	var bestVideo, bestCombined, bestAudio *Candidate

	for i := range candidates {
		c := candidates[i]
		if !usable(c, opts) {
			continue
		}
		switch c.Kind {
		case VideoOnly:
			if bestVideo == nil || rankedBetter(c, *bestVideo) {
				bestVideo = &candidates[i]
			}
		case Combined:
			if bestCombined == nil || rankedBetter(c, *bestCombined) {
				bestCombined = &candidates[i]
			}
		case AudioOnly:
			if bestAudio == nil || rankedBetter(c, *bestAudio) {
				bestAudio = &candidates[i]
			}
		}
	}

	switch {
	case bestCombined != nil && (bestVideo == nil || bestCombined.Height >= bestVideo.Height):
		return Selection{
			Primary:    *bestCombined,
			Expression: bestCombined.ID,
			Strategy:   fmt.Sprintf("progressive %dp", bestCombined.Height),
		}, nil
	case bestVideo != nil:
		sel := Selection{
			Primary:    *bestVideo,
			Audio:      bestAudio,
			Expression: mergeExpression(bestVideo.ID),
			Strategy:   fmt.Sprintf("video-only %dp", bestVideo.Height),
		}
		return sel, nil
	default:
		return Selection{}, services.Wrap(services.ErrFormatUnavailable, "format", "select", "no usable representation", nil)
	}
}

// mergeExpression builds the engine expression for a video-only stream with
// audio fallbacks, mirroring the degradation ladder the site needs.
func mergeExpression(videoID string) string {
	return fmt.Sprintf("%s+bestaudio[acodec!=none]/%s+bestaudio/%s/best", videoID, videoID, videoID)
}

func usable(c Candidate, opts Options) bool {
	if c.ID == "" || c.DRM {
		return false
	}
	if opts.MaxHeight > 0 && c.Height > opts.MaxHeight {
		return false
	}
	proto := strings.ToLower(c.Protocol)
	for _, excluded := range opts.ExcludedProtocols {
		if excluded != "" && strings.HasPrefix(proto, excluded) {
			return false
		}
	}
	for _, id := range opts.Exclude {
		if id != "" && c.ID == id {
			return false
		}
	}
	return true
}
