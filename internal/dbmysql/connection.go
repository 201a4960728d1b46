package dbmysql

import (
	"fmt"
	"time"

	"clipshare/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a GORM DB for the configured driver (mysql or sqlite) with the schema migrated.
func Open(cnf *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cnf.Database.Driver {
	case "", "mysql":
		dialector = mysql.Open(cnf.DSN())
	case "sqlite":
		dialector = sqlite.Open(cnf.Database.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cnf.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", cnf.Database.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(cnf.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Connected to database", zap.String("driver", cnf.Database.Driver))
	return db, nil
}

// Migrate creates or updates every table the platform owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Profile{},
		&Item{},
		&ImageLike{},
		&SavedImage{},
		&Bookmark{},
		&Favorite{},
		&Comment{},
		&Notification{},
		&MediaRef{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
