package database

import (
	"fmt"
	"strings"
	"time"

	"rightsdesk-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options selects the SQL driver and pool size.
type Options struct {
	Driver   string // postgres (default), mysql, sqlite
	DSN      string
	MaxConns int
	LogLevel logger.LogLevel
}

// Open opens a GORM DB for the configured driver. Postgres uses the simple protocol so it works
// behind PgBouncer-style poolers without prepared statement clashes.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	switch driver {
	case "", "postgres", "postgresql":
		dialector = postgres.New(postgres.Config{
			DSN:                  opts.DSN,
			PreferSimpleProtocol: true,
		})
	case "mysql", "mariadb":
		dialector = mysql.Open(opts.DSN)
	case "sqlite":
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", opts.Driver)
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	if driver == "sqlite" {
		maxConns = 1
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns((maxConns + 1) / 2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if driver == "" {
		driver = "postgres"
	}
	log.Info().Str("driver", driver).Int("max_conns", maxConns).Msg("database connected")
	return db, nil
}

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Collaborator{},
		&domain.PublishingEntity{},
		&domain.Song{},
		&domain.SongCollaborator{},
		&domain.SongPublishingEntity{},
		&domain.Contract{},
		&domain.EmailBroadcast{},
		&domain.SmartLink{},
	}
}

// AutoMigrate creates or updates the schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
