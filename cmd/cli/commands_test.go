package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/akeren/wiwi-waitlist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func seededDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.ModelRegistry...))

	ip := "203.0.113.9"
	base := time.Date(2025, 3, 4, 17, 5, 6, 0, time.UTC)
	entries := []*models.WaitlistEntry{
		{Email: "first@example.com", CreatedAt: base, IPAddress: &ip},
		{Email: "second@sample.org", CreatedAt: base.Add(time.Hour)},
	}
	require.NoError(t, db.Create(&entries).Error)

	return db
}

func TestRunList(t *testing.T) {
	db := seededDB(t)

	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), db, []string{"-order", "asc"}, &out))

	text := out.String()
	assert.Contains(t, text, "203.0.113.9")
	assert.Contains(t, text, "2 entries")
	assert.Less(t, strings.Index(text, "first@example.com"), strings.Index(text, "second@sample.org"))

	lines := strings.Split(text, "\n")
	header := -1
	for i, line := range lines {
		if strings.Contains(line, "EMAIL") {
			header = i
			break
		}
	}
	require.GreaterOrEqual(t, header, 0, "header row rendered by tablewriter")
	assert.Contains(t, lines[header], "JOINED (UTC)")
	assert.Contains(t, lines[header], "USER AGENT")
	assert.Less(t, header, strings.Index(text, "first@example.com"))
	require.Greater(t, len(lines), header+1)
	assert.Contains(t, lines[header+1], "─", "separator between header and rows")
	assert.NotContains(t, text, "Email", "titles are not rendered as a data row")
}

func TestRunList_Search(t *testing.T) {
	db := seededDB(t)

	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), db, []string{"-search", "SAMPLE"}, &out))

	assert.NotContains(t, out.String(), "first@example.com")
	assert.Contains(t, out.String(), "1 entries")
}

func TestRunList_RejectsUnknownOrder(t *testing.T) {
	db := seededDB(t)

	err := runList(context.Background(), db, []string{"-order", "sideways"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunExport(t *testing.T) {
	db := seededDB(t)
	dir := t.TempDir()
	now := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)

	err := runExport(context.Background(), log.NewLoggerWithWriter(&bytes.Buffer{}), db, time.UTC,
		[]string{"-out", dir, "-search", "first"}, now)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "wiwi-waitlist-2025-03-05.csv"))
	require.NoError(t, err)

	assert.Equal(t,
		"Email,Joined Date,IP Address,User Agent\n"+
			`"first@example.com","3/4/2025, 5:05:06 PM","203.0.113.9","N/A"`+"\n",
		string(data))
}

func TestRunExport_FailureLeavesNoFile(t *testing.T) {
	db := seededDB(t)
	dir := t.TempDir()
	now := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)

	// A directory squatting on the export name makes the final rename fail.
	blocker := filepath.Join(dir, "wiwi-waitlist-2025-03-05.csv")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0o755))

	err := runExport(context.Background(), log.NewLoggerWithWriter(&bytes.Buffer{}), db, time.UTC,
		[]string{"-out", dir}, now)
	require.Error(t, err)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].IsDir())

	err = runExport(context.Background(), log.NewLoggerWithWriter(&bytes.Buffer{}), db, time.UTC,
		[]string{"-out", filepath.Join(dir, "missing")}, now)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "missing", "wiwi-waitlist-2025-03-05.csv"))
}

func TestRunHashPassword(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runHashPassword(strings.NewReader(" pass word \n"), &out))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(" pass word ")))

	assert.Error(t, runHashPassword(strings.NewReader("\n"), &bytes.Buffer{}))
}

func TestRunMigrate_UnknownAction(t *testing.T) {
	db := seededDB(t)

	err := runMigrate(context.Background(), log.NewLoggerWithWriter(&bytes.Buffer{}), db, []string{"sideways"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown migrate action")
}
