// Package ytdlp wraps the yt-dlp command line tool: probing available
// stream representations for a video and retrieving a selected
// representation to disk. Failures are classified into the service error
// taxonomy so callers can decide between retry, reselection, and giving up.
package ytdlp
