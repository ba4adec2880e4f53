package model

import "github.com/google/uuid"

// Actor identifies who performed an operation. Handlers resolve the JWT
// claims (or a seeded local vendor) to this value before calling any
// service — the core never inspects raw session state.
type Actor struct {
	ID     uuid.UUID
	Nombre string
}
