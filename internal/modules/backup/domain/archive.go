package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrArchiveNotConfigured = errors.New("backup archive is not configured")

const archivePrefix = "sacredsound-"

// ArchiveObject is one backup document stored off the device.
type ArchiveObject struct {
	Name     string
	Size     int64
	Modified time.Time
}

// ArchiveName names an uploaded backup by its export time so names sort
// chronologically.
func ArchiveName(at time.Time, ext string) string {
	return archivePrefix + at.UTC().Format("20060102T150405Z") + "." + ext
}

// IsArchiveName filters foreign objects sharing the bucket prefix.
func IsArchiveName(name string) bool {
	if !strings.HasPrefix(name, archivePrefix) {
		return false
	}
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".yaml")
}
