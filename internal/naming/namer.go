package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"mp4get/internal/services"
	"mp4get/internal/textutil"
)

const (
	extension = ".mp4"
	// maxBaseBytes keeps base names under common filesystem limits with
	// room left for a collision suffix and the extension.
	maxBaseBytes = 200
	// maxCollisions bounds the suffix search so a pathological directory
	// cannot spin the namer forever.
	maxCollisions = 10000
)

// Namer hands out unique output paths inside a single directory. Paths are
// unique against both files already on disk and paths claimed earlier in the
// same run that have not been written yet.
type Namer struct {
	dir string

	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewNamer(outputDir string) *Namer {
	return &Namer{
		dir:     outputDir,
		claimed: make(map[string]struct{}),
	}
}

// Dir returns the output directory the namer claims paths in.
func (n *Namer) Dir() string {
	return n.dir
}

// Claim reserves an output path for title. When the sanitized title is
// empty, fallback (typically the video identifier) is used instead. The
// returned path stays reserved until Release is called, so a failed download
// never leaves its name blocked for a retry with a different title.
func (n *Namer) Claim(title, fallback string) (string, error) {
	base := BaseName(title)
	if base == "" {
		base = BaseName(fallback)
	}
	if base == "" {
		base = "video"
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for i := 0; i <= maxCollisions; i++ {
		name := base + extension
		if i > 0 {
			name = fmt.Sprintf("%s (%d)%s", base, i, extension)
		}
		path := filepath.Join(n.dir, name)
		if _, taken := n.claimed[path]; taken {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", services.Wrap(services.ErrValidation, "naming", "claim", "probe output path", err)
		}
		n.claimed[path] = struct{}{}
		return path, nil
	}
	return "", services.Wrap(services.ErrValidation, "naming", "claim", fmt.Sprintf("no free name for %q after %d attempts", base, maxCollisions), nil)
}

// Release frees a previously claimed path that will not be written.
func (n *Namer) Release(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.claimed, path)
}

// BaseName turns a raw title into a safe file name stem: Unicode is NFC
// normalized, characters that are unsafe on common filesystems are replaced
// or dropped, and the result is truncated on a rune boundary.
func BaseName(title string) string {
	s := norm.NFC.String(strings.TrimSpace(title))
	s = textutil.SanitizeFileName(s)
	s = textutil.TruncateBytes(s, maxBaseBytes)
	return strings.TrimSpace(s)
}
