package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/akeren/wiwi-waitlist/domain/admin"
	"github.com/akeren/wiwi-waitlist/domain/waitlist"
	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/akeren/wiwi-waitlist/internal/models"
	"github.com/akeren/wiwi-waitlist/pkg/migrations"
	"github.com/akeren/wiwi-waitlist/pkg/utils"
	"github.com/olekukonko/tablewriter"
	"gorm.io/gorm"
)

const listTimeLayout = "2006-01-02 15:04:05"

func runMigrate(ctx context.Context, logger *log.Logger, db *gorm.DB, args []string, out io.Writer) error {
	action := "up"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	cfg := migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations"),
		Logger: logger,
	}

	switch action {
	case "up":
		return migrations.Up(ctx, sqlDB, cfg)
	case "down":
		return migrations.Down(ctx, sqlDB, cfg, *steps)
	case "version":
		status, err := migrations.CurrentVersion(ctx, sqlDB, cfg)
		if err != nil {
			return err
		}
		if !status.Applied {
			_, err = fmt.Fprintln(out, "no migrations applied")
			return err
		}
		_, err = fmt.Fprintf(out, "version %d (dirty: %t)\n", status.Version, status.Dirty)
		return err
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
}

type viewFlags struct {
	order  string
	search string
}

func (v *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&v.order, "order", string(waitlist.DefaultSortOrder), "sort by join time: asc or desc")
	fs.StringVar(&v.search, "search", "", "case-insensitive email filter")
}

// load fetches the entries a dashboard with these flags would show.
func (v *viewFlags) load(ctx context.Context, db *gorm.DB) ([]*models.WaitlistEntry, error) {
	order, err := waitlist.ParseSortOrder(v.order)
	if err != nil {
		return nil, err
	}

	dashboard := admin.NewDashboard(waitlist.NewWaitlistRepository(db))
	dashboard.SetSearch(v.search)
	if err := dashboard.SetOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("load waitlist: %w", err)
	}

	return dashboard.Visible(), nil
}

func runList(ctx context.Context, db *gorm.DB, args []string, out io.Writer) error {
	var view viewFlags
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	view.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := view.load(ctx, db)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("Email", "Joined (UTC)", "IP Address", "User Agent")
	for _, entry := range entries {
		row := []string{
			entry.Email,
			entry.CreatedAt.UTC().Format(listTimeLayout),
			valueOrDash(entry.IPAddress),
			valueOrDash(entry.UserAgent),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%d entries\n", len(entries))
	return err
}

func runExport(ctx context.Context, logger *log.Logger, db *gorm.DB, loc *time.Location, args []string, now time.Time) error {
	var view viewFlags
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	view.register(fs)
	outDir := fs.String("out", ".", "directory to write the CSV file into")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := view.load(ctx, db)
	if err != nil {
		return err
	}

	path, err := admin.NewCSVExporter(loc).WriteFile(*outDir, admin.ExportFilename(now), entries)
	if err != nil {
		return err
	}

	logger.Info("Waitlist exported", "path", path, "entries", len(entries))
	return nil
}

// runHashPassword reads the first line of in, verbatim apart from the line ending.
func runHashPassword(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")

	hash, err := admin.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, hash)
	return err
}

func valueOrDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
