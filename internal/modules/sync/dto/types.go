package dto

import "time"

type StatusOutput struct {
	Online           bool
	BackendAvailable bool
	Pending          int
	Parked           int
	ByCollection     map[string]int
	LastDrain        time.Time
}

type DrainOutput struct {
	Attempted int
	Applied   int
	Failed    int
	Parked    int
	Aborted   bool
	Skipped   bool
	Remaining int
}

type QueueEntryOutput struct {
	Seq        int64
	Collection string
	Action     string
	Key        string
	Timestamp  time.Time
	RetryCount int
	LastError  string
	Parked     bool
}
