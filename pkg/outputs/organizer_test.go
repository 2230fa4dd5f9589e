package outputs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "temp_ab12cd34.wav")
	require.NoError(t, os.WriteFile(path, []byte("fake audio"), 0o600))
	return path
}

func TestOrganizerPlace(t *testing.T) {
	root := t.TempDir()
	org := NewOrganizer(root)
	org.now = func() time.Time {
		return time.Date(2026, 8, 25, 14, 30, 5, 0, time.UTC)
	}

	placement := org.Place(tempArtifact(t), "Spanish")

	require.False(t, placement.Degraded)
	assert.Equal(t, filepath.Join(root, "2026-08-25", "Spanish", "clone_143005_temp_ab12cd34.wav"), placement.AbsolutePath)
	assert.Equal(t, filepath.Join("2026-08-25", "Spanish", "clone_143005_temp_ab12cd34.wav"), placement.RelativePath)

	content, err := os.ReadFile(placement.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, "fake audio", string(content))
}

func TestOrganizerPlaceDegradesOnFailure(t *testing.T) {
	temp := tempArtifact(t)

	t.Run("empty root", func(t *testing.T) {
		placement := NewOrganizer("").Place(temp, "English")
		assert.True(t, placement.Degraded)
		assert.Equal(t, temp, placement.AbsolutePath)
		assert.Equal(t, filepath.Base(temp), placement.RelativePath)
	})

	t.Run("unwritable root", func(t *testing.T) {
		// A root that is a file, not a directory.
		rootFile := filepath.Join(t.TempDir(), "root")
		require.NoError(t, os.WriteFile(rootFile, nil, 0o600))

		placement := NewOrganizer(rootFile).Place(temp, "English")
		assert.True(t, placement.Degraded)
		assert.Equal(t, temp, placement.AbsolutePath)
	})

	t.Run("missing source", func(t *testing.T) {
		placement := NewOrganizer(t.TempDir()).Place(filepath.Join(t.TempDir(), "gone.wav"), "English")
		assert.True(t, placement.Degraded)
	})
}

func TestOrganizerRoot(t *testing.T) {
	org := NewOrganizer("  /data/outputs  ")
	assert.Equal(t, "/data/outputs", org.Root())
}

func TestSweepExpired(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old.wav")
	fresh := filepath.Join(dir, "fresh.wav")
	require.NoError(t, os.WriteFile(old, nil, 0o600))
	require.NoError(t, os.WriteFile(fresh, nil, 0o600))

	stale := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))

	removed := SweepExpired(dir, 2*time.Hour)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestSweepExpiredMissingDir(t *testing.T) {
	assert.Zero(t, SweepExpired(filepath.Join(t.TempDir(), "absent"), time.Hour))
}

func TestRemoveTolerant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	assert.NoError(t, Remove(path))
	assert.NoError(t, Remove(path), "second removal must not error")
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "2026-08-25", "English")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	artifact := filepath.Join(nested, "clone_120000_abc.wav")
	require.NoError(t, os.WriteFile(artifact, []byte("x"), 0o600))

	assert.Equal(t, artifact, Find(root, "clone_120000_abc.wav"))
	assert.Empty(t, Find(root, "missing.wav"))
	assert.Empty(t, Find("", "clone_120000_abc.wav"))
}

func TestFindRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"../etc/passwd", "a/b.wav", `a\b.wav`, "..", ".", ""} {
		assert.Empty(t, Find(root, name), "name %q must be rejected", name)
	}
}

func TestSafeFilename(t *testing.T) {
	assert.True(t, SafeFilename("clone_120000_abc.wav"))
	assert.True(t, SafeFilename("voice.mp3"))
	assert.False(t, SafeFilename(""))
	assert.False(t, SafeFilename("."))
	assert.False(t, SafeFilename(".."))
	assert.False(t, SafeFilename("a/b.wav"))
	assert.False(t, SafeFilename(strings.Repeat("../", 3)+"x.wav"))
}
