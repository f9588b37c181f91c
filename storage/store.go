package storage

import "context"

type Store interface {
	Set(ctx context.Context, db, location string, value []byte) error
	Get(ctx context.Context, db, location string) ([]byte, bool, error)
	Delete(ctx context.Context, db, location string) error

	CreateDB(ctx context.Context, db string) error
	DropDB(ctx context.Context, db string) (bool, error)
	ListDB(ctx context.Context) ([]string, error)

	Restore(values []byte) error
	Backup() ([]byte, error)

	ListenToUpdates() <-chan *Update

	Close() error
}

// Update is broadcast to listeners whenever a value changes.
type Update struct {
	DB       string
	Location string
	Value    []byte
}
