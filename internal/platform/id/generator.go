package id

import "github.com/google/uuid"

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() string
}

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// StaticGenerator returns a fixed ID, for deterministic tests.
type StaticGenerator struct {
	ID string
}

func (g StaticGenerator) NewID() string {
	return g.ID
}
