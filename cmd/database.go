package cmd

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/charity-reminder/internal"
)

// database holds the gorm handle used by repositories and an sqlx view of
// the same pool for report queries.
type database struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

func openDatabase(cfg internal.DatabaseConfig) (*database, error) {
	var (
		dialector  gorm.Dialector
		driverName string
	)
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.New(postgres.Config{DriverName: "pgx", DSN: cfg.Source})
		driverName = "pgx"
	case "sqlite":
		dialector = sqlite.Open(cfg.Source)
		driverName = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	if driverName == "sqlite3" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &database{Gorm: db, SQLX: sqlx.NewDb(sqlDB, driverName)}, nil
}

func (d *database) Close() error {
	return d.SQLX.Close()
}
