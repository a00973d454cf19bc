package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/relocation-intake/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Intake cases
		// =========================
		&types.IntakeCase{},

		// =========================
		// Event log + projection
		// =========================
		&types.UserEvent{},
		&types.UserSummary{},

		// =========================
		// Jobs / worker
		// =========================
		&types.JobRun{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureJobIndexes(db)
}

// EnsureJobIndexes adds the lookup index the worker claim query and the
// per-case in-flight check rely on.
func EnsureJobIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_entity_status
		ON job_run (entity_type, entity_id, job_type, status);
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_entity_status: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_status_created
		ON job_run (status, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_status_created: %w", err)
	}
	return nil
}
