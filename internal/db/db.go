package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"lexiq-backend/internal/config"
	"lexiq-backend/internal/model"
	"lexiq-backend/pkg/logging"
)

// gormWriter sends gorm's log lines through the application logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, v ...interface{}) {
	logger.Warn(format, v...)
}

// InitDBFromConfig opens the postgres connection described by cfg and
// applies the pool settings.
func InitDBFromConfig(cfg *config.APIConfig) (*gorm.DB, error) {
	conn, err := Open(postgres.Open(cfg.DB.DSN()), cfg.DB.Pool)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to %s database %q at %s:%d", cfg.DB.Driver, cfg.DB.Name, cfg.DB.Host, cfg.DB.Port)
	return conn, nil
}

// Open connects through any gorm dialector. Tests use it with sqlite.
func Open(dialector gorm.Dialector, pool config.DBPoolConfig) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Second)
	}
	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close releases the pooled connections.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
