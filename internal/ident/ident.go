// Package ident produces the opaque ids used for volunteers, items and
// audit entries. Ids are globally unique and never reused.
package ident

import "github.com/google/uuid"

// Generator lets components take id generation as a dependency.
type Generator func() string

func New() string {
	return uuid.NewString()
}
