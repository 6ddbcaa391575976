package store

import (
	"context"
	"errors"
)

// Collection names used across the service. Each collection is one
// self-contained JSON document.
const (
	Volunteers = "volunteers"
	Walkies    = "walkies"
	LiftCards  = "liftCards"
	Config     = "config"
	AuditLog   = "auditLog"
)

var ErrNoDocument = errors.New("no document")

// Store reads and writes whole collection documents. Writes are full
// overwrites; there is no partial patch.
type Store interface {
	ReadCollection(ctx context.Context, name string) ([]byte, error)
	WriteCollection(ctx context.Context, name string, doc []byte) error
}
