package dto

import "time"

type ExportInput struct {
	Format string
}

type ExportOutput struct {
	Data       []byte
	Format     string
	ExportedAt time.Time
	Records    map[string]int
}

type ImportInput struct {
	Data    []byte
	Replace bool
}

type ImportOutput struct {
	Imported map[string]int
	Skipped  int
	Replaced bool
}

type UploadInput struct {
	Format string
}

type ArchiveOutput struct {
	Name     string
	Size     int64
	Modified time.Time
}

type UploadOutput struct {
	Archive ArchiveOutput
	Records map[string]int
}

// RestoreInput picks an archived backup; an empty name means the newest.
type RestoreInput struct {
	Name    string
	Replace bool
}

type RestoreOutput struct {
	Name   string
	Import ImportOutput
}
