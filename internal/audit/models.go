package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"pharmatrace/pkg/domain"
)

// Entry is one immutable audit record. IDs are assigned sequentially from 0
// in global insertion order and entries are never edited or removed.
type Entry struct {
	ID        uint64         `json:"id"`
	BatchID   domain.BatchID `json:"batch_id"`
	Action    string         `json:"action"`
	Actor     domain.Actor   `json:"actor"`
	Timestamp time.Time      `json:"timestamp"`
	Details   string         `json:"details"`
	DataHash  string         `json:"data_hash"`
}

// HashDetails computes the canonical content hash callers store alongside an
// entry. Hex-encoded SHA-256; the trail only ever compares these for equality.
func HashDetails(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
