package storage

import (
	"encoding/json"
	"time"
)

// Snapshot is the last list fetched for one cache key. Data is the tagged
// JSON array produced by content.MarshalTagged.
type Snapshot struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}
