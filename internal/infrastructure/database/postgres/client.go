// Package postgres implements the domain repositories on PostgreSQL via GORM.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/pkg/config"
)

// Client wraps the GORM connection pool.
type Client struct {
	db *gorm.DB
}

// NewClient opens the connection pool described by cfg.
func NewClient(cfg config.DatabaseConfig) (*Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Client{db: db}, nil
}

// DB exposes the underlying GORM handle to the repositories.
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Migrate creates or updates the schema for every model.
func (c *Client) Migrate() error {
	return c.db.AutoMigrate(
		&TransactionModel{},
		&HistoryModel{},
		&BankModel{},
		&CommissionModel{},
		&SegmentModel{},
		&RuleModel{},
		&AlertModel{},
	)
}

// Close releases the connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies connectivity.
func (c *Client) Ping() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
