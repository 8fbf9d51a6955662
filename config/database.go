package config

import (
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qasimdev/sijill/internal/models"
)

// InitDatabase opens the relational store. SQLite is the default;
// setting POSTGRES_URI switches to Postgres with the same schema.
func InitDatabase(cfg *Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	if cfg.PostgresURI != "" {
		db, err = gorm.Open(postgres.Open(cfg.PostgresURI), gormCfg)
		if err != nil {
			return nil, err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		// Connection pooling settings
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	} else {
		// SQLite leaves foreign keys off unless the connection asks
		dsn := cfg.SQLitePath + "?_pragma=foreign_keys(1)"
		db, err = gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		// SQLite only supports 1 writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&models.Employee{}, &models.EmployeeFile{}); err != nil {
		return nil, err
	}

	return db, nil
}
