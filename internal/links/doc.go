// Package links normalizes raw user input into a deduplicated, ordered list
// of canonical video link entries.
//
// Input may mix full watch URLs, short youtu.be links, shorts/embed/live
// paths, and bare 11-character video IDs, separated by commas, spaces, or
// newlines. Unrecognized tokens are kept as invalid entries so callers can
// report them instead of silently dropping input.
package links
