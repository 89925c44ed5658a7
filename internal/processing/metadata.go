package processing

import "time"

// Metadata describes where an ingested chunk came from.
type Metadata struct {
	Source     string
	Row        int
	Chunk      int
	ImportedAt time.Time
}

// Map renders the metadata as passage metadata.
func (m Metadata) Map() map[string]any {
	return map[string]any{
		"source":      m.Source,
		"row":         m.Row,
		"chunk":       m.Chunk,
		"imported_at": m.ImportedAt.UTC().Format(time.RFC3339),
	}
}
