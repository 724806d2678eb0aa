package admin

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/akeren/wiwi-waitlist/domain/waitlist"
	"github.com/akeren/wiwi-waitlist/internal/log"
)

// SnapshotWriter writes the full waitlist, newest first, to a dated CSV file.
type SnapshotWriter struct {
	logger   *log.Logger
	source   EntrySource
	exporter *CSVExporter
	dir      string
	now      func() time.Time
}

func NewSnapshotWriter(logger *log.Logger, source EntrySource, exporter *CSVExporter, dir string) *SnapshotWriter {
	return &SnapshotWriter{
		logger:   logger,
		source:   source,
		exporter: exporter,
		dir:      dir,
		now:      time.Now,
	}
}

// Write returns the path of the snapshot. A snapshot taken the same day replaces the earlier one.
func (s *SnapshotWriter) Write(ctx context.Context) (string, error) {
	dashboard := NewDashboard(s.source)
	if err := dashboard.SetOrder(ctx, waitlist.SortDescending); err != nil {
		return "", fmt.Errorf("fetch waitlist: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path, err := s.exporter.WriteFile(s.dir, ExportFilename(s.now()), dashboard.Visible())
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// Run is the scheduled entry point; failures are logged and never propagate.
func (s *SnapshotWriter) Run(ctx context.Context) {
	path, err := s.Write(ctx)
	if err != nil {
		s.logger.Error("Waitlist snapshot failed", "error", err)
		return
	}
	s.logger.Info("Waitlist snapshot written", "path", path)
}
