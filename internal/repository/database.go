package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Anchal0410/peer-connect/internal/config"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dialector(cfg config.StoreConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
				cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode,
			)
		}
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name,
			)
		}
		return mysql.Open(dsn), nil
	case config.DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "peer_connect.db"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("driver %q is not relational", cfg.Driver)
	}
}

// InitDB opens the relational database for cfg.Driver and migrates the schema.
func InitDB(cfg config.StoreConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "gorm.Open")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&userRow{},
		&userInterestRow{},
		&activityRow{},
		&activityParticipantRow{},
		&conversationRow{},
		&conversationMemberRow{},
		&messageRow{},
		&messageReadRow{},
	); err != nil {
		return errors.Wrap(err, "AutoMigrate")
	}
	return nil
}

var (
	_ UserRepository         = (*gormUserRepository)(nil)
	_ ActivityRepository     = (*gormActivityRepository)(nil)
	_ ConversationRepository = (*gormConversationRepository)(nil)
	_ MessageRepository      = (*gormMessageRepository)(nil)
)

// NewGormStore wires the gorm repositories over db.
func NewGormStore(db *gorm.DB) *Store {
	return NewStore(
		newGormUserRepository(db),
		newGormActivityRepository(db),
		newGormConversationRepository(db),
		newGormMessageRepository(db),
		func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	)
}

// translate maps gorm sentinel errors onto repository errors.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return errors.Wrap(err, op)
	}
}

// checkAffected distinguishes "no such row" from "row unchanged", which MySQL
// reports as zero affected rows.
func checkAffected(tx *gorm.DB, res *gorm.DB, model interface{}, id string) error {
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
