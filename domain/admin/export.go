package admin

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akeren/wiwi-waitlist/internal/models"
)

const (
	CSVContentType   = "text/csv; charset=utf-8"
	JoinedDateLayout = "1/2/2006, 3:04:05 PM"

	csvHeader     = "Email,Joined Date,IP Address,User Agent"
	notAvailable  = "N/A"
	filenameDate  = "2006-01-02"
	filenameStart = "wiwi-waitlist-"
)

// ExportFilename names an export taken at now, using the UTC calendar date.
func ExportFilename(now time.Time) string {
	return filenameStart + now.UTC().Format(filenameDate) + ".csv"
}

// CSVExporter renders entries with every data field quoted. The header row is not quoted.
type CSVExporter struct {
	loc *time.Location
}

func NewCSVExporter(loc *time.Location) *CSVExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &CSVExporter{loc: loc}
}

func (e *CSVExporter) Write(w io.Writer, entries []*models.WaitlistEntry) error {
	if _, err := io.WriteString(w, csvHeader+"\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, entry := range entries {
		row := strings.Join([]string{
			quoteField(entry.Email),
			quoteField(entry.CreatedAt.In(e.loc).Format(JoinedDateLayout)),
			quoteField(orNotAvailable(entry.IPAddress)),
			quoteField(orNotAvailable(entry.UserAgent)),
		}, ",")

		if _, err := io.WriteString(w, row+"\n"); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	return nil
}

// WriteFile writes the export to dir/filename and returns its path. The file only
// appears once it is complete; an existing file of that name is replaced.
func (e *CSVExporter) WriteFile(dir, filename string, entries []*models.WaitlistEntry) (string, error) {
	return writeFileAtomic(dir, filename, func(w io.Writer) error {
		return e.Write(w, entries)
	})
}

func writeFileAtomic(dir, filename string, write func(w io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(dir, ".export-*.csv")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish export file: %w", err)
	}

	return path, nil
}

func (e *CSVExporter) Render(entries []*models.WaitlistEntry) []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes cannot fail.
	_ = e.Write(&buf, entries)
	return buf.Bytes()
}

func quoteField(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func orNotAvailable(v *string) string {
	if v == nil || *v == "" {
		return notAvailable
	}
	return *v
}
