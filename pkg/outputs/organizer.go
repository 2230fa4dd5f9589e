// Package outputs manages the lifecycle of synthesized audio artifacts:
// placement into a date/language-partitioned namespace, retrieval by
// filename, and expiry of transient files.
package outputs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const dirPermissions = 0o755

// Placement describes where an artifact ended up.
type Placement struct {
	// AbsolutePath is the final artifact location.
	AbsolutePath string

	// RelativePath is AbsolutePath relative to the output root, for
	// responses and logs. Falls back to the bare filename when the
	// artifact could not be organized.
	RelativePath string

	// Degraded is true when organization failed and AbsolutePath is the
	// original temporary file, unmodified. Callers must treat this as a
	// degraded success, not a failure.
	Degraded bool
}

// Organizer copies finished artifacts into <root>/<YYYY-MM-DD>/<Language>/
// with a timestamped filename, yielding a stable externally-addressable
// name for retrieval.
type Organizer struct {
	root string
	now  func() time.Time
}

// NewOrganizer creates an organizer rooted at root.
func NewOrganizer(root string) *Organizer {
	return &Organizer{root: strings.TrimSpace(root), now: time.Now}
}

// Root returns the output root directory.
func (o *Organizer) Root() string {
	return o.root
}

// Place copies the temporary artifact into the organized namespace and
// returns its placement. On any failure it returns the temporary path
// unchanged with Degraded set; it never returns an error.
func (o *Organizer) Place(tempPath, language string) Placement {
	degraded := Placement{
		AbsolutePath: tempPath,
		RelativePath: filepath.Base(tempPath),
		Degraded:     true,
	}

	if o.root == "" {
		return degraded
	}

	now := o.now()
	langDir := filepath.Join(o.root, now.Format("2006-01-02"), language)
	if err := os.MkdirAll(langDir, dirPermissions); err != nil {
		return degraded
	}

	stem := strings.TrimSuffix(filepath.Base(tempPath), filepath.Ext(tempPath))
	dest := filepath.Join(langDir, fmt.Sprintf("clone_%s_%s.wav", now.Format("150405"), stem))

	if err := copyFile(tempPath, dest); err != nil {
		return degraded
	}

	rel, err := filepath.Rel(o.root, dest)
	if err != nil {
		rel = filepath.Base(dest)
	}

	return Placement{AbsolutePath: dest, RelativePath: rel}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}
