package ytdlp

import (
	"encoding/json"
	"errors"
	"strings"

	"mp4get/internal/format"
)

// Metadata is the probe result: video identity plus the representations the
// site currently offers.
type Metadata struct {
	ID         string
	Title      string
	Duration   float64
	Candidates []format.Candidate
}

type probePayload struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Duration float64       `json:"duration"`
	Formats  []probeFormat `json:"formats"`
}

type probeFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Protocol       string  `json:"protocol"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	TBR            float64 `json:"tbr"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	HasDRM         bool    `json:"has_drm"`
}

func parseMetadata(raw []byte) (*Metadata, error) {
	var payload probePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, errors.New("metadata missing video id")
	}

	meta := &Metadata{
		ID:       payload.ID,
		Title:    payload.Title,
		Duration: payload.Duration,
	}
	for _, f := range payload.Formats {
		kind, ok := classifyKind(f)
		if !ok {
			continue
		}
		size := f.Filesize
		if size == 0 {
			size = f.FilesizeApprox
		}
		meta.Candidates = append(meta.Candidates, format.Candidate{
			ID:        f.FormatID,
			Kind:      kind,
			Container: f.Ext,
			Protocol:  f.Protocol,
			Height:    f.Height,
			FPS:       f.FPS,
			Bitrate:   f.TBR,
			Filesize:  size,
			DRM:       f.HasDRM,
		})
	}
	return meta, nil
}

func classifyKind(f probeFormat) (format.Kind, bool) {
	hasVideo := f.VCodec != "" && !strings.EqualFold(f.VCodec, "none")
	hasAudio := f.ACodec != "" && !strings.EqualFold(f.ACodec, "none")
	switch {
	case hasVideo && hasAudio:
		return format.Combined, true
	case hasVideo:
		return format.VideoOnly, true
	case hasAudio:
		return format.AudioOnly, true
	default:
		// Storyboards and other non-media entries.
		return "", false
	}
}
