package links

import (
	"net/url"
	"regexp"
	"strings"
)

// Entry is one user-supplied reference to a remote video. Entries are
// immutable once parsed.
type Entry struct {
	// Raw is the token as the user typed it, after trimming wrappers.
	Raw string
	// ID is the canonical 11-character video identifier. Empty when the
	// token is invalid.
	ID string
	// URL is the canonical watch URL derived from ID.
	URL string
	// Valid reports whether the token matched a recognized link shape.
	Valid bool
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Parse splits raw input on commas and whitespace and normalizes each token
// into an Entry. Valid entries are deduplicated by canonical ID with the
// first occurrence winning; order is preserved. Empty input yields an empty
// slice.
func Parse(raw string) []Entry {
	var entries []Entry
	seen := make(map[string]struct{})

	for _, piece := range strings.FieldsFunc(raw, isSeparator) {
		token := cleanToken(piece)
		if token == "" {
			continue
		}

		id := normalizeToken(token)
		if id == "" {
			entries = append(entries, Entry{Raw: token})
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		entries = append(entries, Entry{
			Raw:   token,
			ID:    id,
			URL:   watchURLPrefix + id,
			Valid: true,
		})
	}

	return entries
}

// Valid filters entries down to the valid ones, preserving order.
func Valid(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Valid {
			out = append(out, entry)
		}
	}
	return out
}

func isSeparator(r rune) bool {
	return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func cleanToken(piece string) string {
	token := strings.TrimSpace(piece)
	token = strings.Trim(token, `"'<>[](){}`)
	return strings.Trim(token, ",")
}

// normalizeToken returns the canonical video ID for a recognized token, or
// empty when the token does not look like a supported link.
func normalizeToken(token string) string {
	if videoIDPattern.MatchString(token) {
		return token
	}

	value := token
	if strings.HasPrefix(value, "youtube.com/") ||
		strings.HasPrefix(value, "www.youtube.com/") ||
		strings.HasPrefix(value, "youtu.be/") {
		value = "https://" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	path := parsed.EscapedPath()

	switch {
	case strings.HasSuffix(host, "youtu.be"):
		candidate, _, _ := strings.Cut(strings.Trim(path, "/"), "/")
		if videoIDPattern.MatchString(candidate) {
			return candidate
		}
	case strings.HasSuffix(host, "youtube.com"):
		if path == "/watch" {
			candidate := parsed.Query().Get("v")
			if videoIDPattern.MatchString(candidate) {
				return candidate
			}
			return ""
		}
		parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
		if len(parts) >= 2 {
			switch parts[0] {
			case "shorts", "embed", "live":
				if videoIDPattern.MatchString(parts[1]) {
					return parts[1]
				}
			}
		}
	}

	return ""
}
