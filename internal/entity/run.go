package entity

import (
	"time"

	"github.com/google/uuid"
)

// Run is one processed batch, kept for history.
type Run struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Origin    string    `json:"origin"` // cli | batch | http | grpc | watch
	Documents int       `json:"documents"`
	Failed    int       `json:"failed"`
	Empty     int       `json:"empty"`
	Notes     int       `json:"notes"`
	TotalNota float64   `json:"total_nota"`
	PesoTotal float64   `json:"peso_total"`
}
