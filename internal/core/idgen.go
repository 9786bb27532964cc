package core

import "github.com/google/uuid"

// IDGenerator supplies identifiers for new tasks. Uniqueness is the
// generator's responsibility; the store only matches on equality.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

// NewIDGenerator returns an IDGenerator producing random (v4) UUIDs.
func NewIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}
