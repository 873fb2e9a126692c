package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// TxFunc runs inside a transaction.
type TxFunc func(tx *gorm.DB) error

// Provider is the database access abstraction every backend implements.
type Provider interface {
	// DB returns the underlying *gorm.DB
	DB() *gorm.DB

	// WithContext returns a context-scoped *gorm.DB
	WithContext(ctx context.Context) *gorm.DB

	// Transaction runs fn inside a transaction
	Transaction(fn TxFunc) error

	// TransactionWithContext runs fn inside a context-scoped transaction
	TransactionWithContext(ctx context.Context, fn TxFunc) error

	// AutoMigrate migrates the given models
	AutoMigrate(models ...interface{}) error

	// SQLDB returns the underlying sql.DB
	SQLDB() (*sql.DB, error)

	// Ping checks the connection
	Ping() error

	// Close closes the connection
	Close() error

	// Name returns the backend name
	Name() string
}
