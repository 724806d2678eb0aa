package admin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akeren/wiwi-waitlist/domain/waitlist"
	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSnapshotWriter_Write(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := waitlist.NewMockWaitlistRepository(ctrl)
	repo.EXPECT().
		ListEntries(gomock.Any(), waitlist.SortDescending).
		Return(reversed(sampleEntries()), nil)

	dir := filepath.Join(t.TempDir(), "exports")
	writer := NewSnapshotWriter(log.NewLoggerWithJSONOutput(), repo, NewCSVExporter(time.UTC), dir)
	writer.now = func() time.Time { return time.Date(2025, 2, 1, 23, 0, 0, 0, time.UTC) }

	path, err := writer.Write(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "wiwi-waitlist-2025-02-01.csv"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], `"Élodie@example.com"`), "newest first")

	leftovers, err := filepath.Glob(filepath.Join(dir, ".export-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSnapshotWriter_FetchErrorWritesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := waitlist.NewMockWaitlistRepository(ctrl)
	repo.EXPECT().ListEntries(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down")).Times(2)

	dir := t.TempDir()
	writer := NewSnapshotWriter(log.NewLoggerWithJSONOutput(), repo, NewCSVExporter(time.UTC), dir)

	_, err := writer.Write(context.Background())
	assert.Error(t, err)

	assert.NotPanics(t, func() { writer.Run(context.Background()) })

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}
