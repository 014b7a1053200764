package db

import "context"

// DB is the database port repositories are built on. Conn exposes the
// driver-specific handle (e.g. *gorm.DB) to the matching repository.
type DB interface {
	Conn() any
	Ping(ctx context.Context) error
	Close() error
}
