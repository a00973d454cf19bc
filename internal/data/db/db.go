package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/relocation-intake/internal/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver     string
	Postgres   PostgresConfig
	SQLitePath string
}

// Open connects to the configured driver.
func Open(cfg Config, logg *logger.Logger) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverPostgres:
		svc, err := NewPostgresService(cfg.Postgres, logg)
		if err != nil {
			return nil, err
		}
		return svc.DB(), nil
	case DriverSQLite:
		svc, err := NewSQLiteService(cfg.SQLitePath, logg)
		if err != nil {
			return nil, err
		}
		return svc.DB(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}
