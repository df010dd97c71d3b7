package format

import "fmt"

// Kind classifies what a representation carries.
type Kind string

const (
	Combined  Kind = "combined"
	VideoOnly Kind = "video-only"
	AudioOnly Kind = "audio-only"
)

// Candidate is one available representation of a video, prior to selection.
// Instances are ephemeral: produced per link, discarded after selection.
type Candidate struct {
	// ID is the retrieval engine's opaque stream descriptor.
	ID        string
	Kind      Kind
	Container string
	// Protocol is the delivery protocol (https, m3u8, ...).
	Protocol string
	// Height is the resolution rank; 0 for audio-only streams.
	Height int
	FPS    float64
	// Bitrate is the reported total bitrate in kbit/s.
	Bitrate  float64
	Filesize int64
	// DRM marks representations that cannot be downloaded.
	DRM bool
}

func (c Candidate) String() string {
	if c.Kind == AudioOnly {
		return fmt.Sprintf("%s audio %.0fkbps", c.ID, c.Bitrate)
	}
	return fmt.Sprintf("%s %s %dp", c.ID, c.Kind, c.Height)
}

// rankedBetter reports whether a should be preferred over b. Order: higher
// resolution, then higher frame rate, then higher bitrate, then larger
// filesize. Equal candidates keep their listing order (callers must use a
// stable scan).
func rankedBetter(a, b Candidate) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	if a.FPS != b.FPS {
		return a.FPS > b.FPS
	}
	if a.Bitrate != b.Bitrate {
		return a.Bitrate > b.Bitrate
	}
	return a.Filesize > b.Filesize
}
