package entity

import "github.com/google/uuid"

// RunDocument records how one submitted document fared within a run.
type RunDocument struct {
	RunID   uuid.UUID `json:"run_id"`
	Seq     int       `json:"seq"`
	Name    string    `json:"name"`
	HashHex string    `json:"hash_hex,omitempty"`
	Status  string    `json:"status"`
	Method  string    `json:"method,omitempty"`
	Pages   int       `json:"pages"`
	Notes   int       `json:"notes"`
	Error   string    `json:"error,omitempty"`
}
