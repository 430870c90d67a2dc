package domain

import "time"

const SnapshotVersion = 1

// Snapshot is a portable copy of every local collection.
type Snapshot struct {
	Version     int                         `json:"version" yaml:"version"`
	App         string                      `json:"app" yaml:"app"`
	ExportedAt  time.Time                   `json:"exportedAt" yaml:"exportedAt"`
	Collections map[string][]map[string]any `json:"collections" yaml:"collections"`
}

func (s Snapshot) Count() int {
	n := 0
	for _, records := range s.Collections {
		n += len(records)
	}
	return n
}

type ImportReport struct {
	Imported     map[string]int
	Skipped      int
	ClearedFirst bool
}
