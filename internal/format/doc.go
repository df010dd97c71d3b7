// Package format models available stream representations and picks the best
// one per the tiered preference policy.
//
// Candidates are a closed set of variants (combined, video-only, audio-only)
// with explicit resolution and bitrate fields so the selection policy stays
// exhaustively testable. Selection prefers a single combined representation
// when it matches the best video-only resolution, otherwise pairs the best
// video-only stream with the best audio-only stream for merging.
package format
