package filesystem

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStore_PutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Put(ctx, "uploads/1700000000000report.pdf", bytes.NewReader([]byte("%PDF-1.4")), "application/pdf")
	require.NoError(t, err)

	data, err := s.Get(ctx, "uploads/1700000000000report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.FileExists(t, filepath.Join(s.Root(), "uploads", "1700000000000report.pdf"))
}

func TestStore_PutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a.pdf", bytes.NewReader([]byte("one")), ""))
	require.NoError(t, s.Put(ctx, "a.pdf", bytes.NewReader([]byte("two")), ""))

	data, err := s.Get(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStore_PutFailureLeavesNothing(t *testing.T) {
	s := newTestStore(t)

	err := s.Put(context.Background(), "broken.pdf", failingReader{}, "")
	require.Error(t, err)

	_, err = s.Get(context.Background(), "broken.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "uploads/none.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../secret", "/etc/passwd", "uploads/../../x"} {
		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, key)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "a.pdf", bytes.NewReader(nil), ""), context.Canceled)
	_, err := s.Get(ctx, "a.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_URLRoundTrip(t *testing.T) {
	s := newTestStore(t)

	u := s.URL("uploads/my report.pdf")

	assert.Contains(t, u, "file://")
	assert.Equal(t, filepath.Join(s.Root(), "uploads", "my report.pdf"), ResolvePath(u))
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{name: "file URL", uri: "file:///tmp/docs/file.pdf", want: "/tmp/docs/file.pdf"},
		{name: "escaped space", uri: "file:///tmp/my%20docs/file.pdf", want: "/tmp/my docs/file.pdf"},
		{name: "bare path", uri: "/tmp/file.pdf", want: "/tmp/file.pdf"},
		{name: "relative path", uri: "relative/file.pdf", want: "relative/file.pdf"},
		{name: "empty", uri: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.uri))
		})
	}
}
