package entity

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

// StoredRecord is a NoteRecord persisted under a run, addressed by the
// document it came from and its position within that document.
type StoredRecord struct {
	RunID  uuid.UUID
	DocSeq int
	Seq    int
	romaneio.NoteRecord
}
