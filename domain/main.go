package domain

import (
	"github.com/akeren/wiwi-waitlist/config"
	"github.com/akeren/wiwi-waitlist/domain/admin"
	"github.com/akeren/wiwi-waitlist/domain/monitoring"
	"github.com/akeren/wiwi-waitlist/domain/waitlist"
	"github.com/akeren/wiwi-waitlist/internal/scheduler"
)

const snapshotJobName = "waitlist-snapshot"

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	rs := appConfig.RouterService

	rs.MountController(monitoring.NewMonitoringController(appConfig.DB, appConfig.Logger, appConfig.Cache, appConfig.IPLookupClient))
	rs.MountController(waitlist.NewWaitlistController(appConfig.DB, appConfig.Logger))
	rs.MountController(admin.NewAdminController(appConfig.DB, appConfig.Logger, appConfig.Cache, appConfig.Admin, appConfig.Export))
}

// SetupScheduledJobs returns a started scheduler, or nil when snapshots are not configured.
func SetupScheduledJobs(appConfig *config.ApplicationConfig) (*scheduler.Scheduler, error) {
	if appConfig.Export == nil || !appConfig.Export.SnapshotsEnabled() {
		return nil, nil
	}

	writer := admin.NewSnapshotWriter(
		appConfig.Logger,
		waitlist.NewWaitlistRepository(appConfig.DB),
		admin.NewCSVExporter(appConfig.Export.Location),
		appConfig.Export.Dir,
	)

	s := scheduler.New(appConfig.Export.Location, appConfig.Logger)
	id, err := s.Schedule(snapshotJobName, appConfig.Export.Schedule, writer.Run)
	if err != nil {
		return nil, err
	}

	s.Start()
	appConfig.Logger.Info("Waitlist snapshots scheduled",
		"schedule", appConfig.Export.Schedule,
		"dir", appConfig.Export.Dir,
		"next_run", s.Next(id))

	return s, nil
}
