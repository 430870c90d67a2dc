package slug

import (
	"strings"

	gosimpleslug "github.com/gosimple/slug"
)

// Make turns a display name into a stable record key. Names with no
// letters or digits collapse to "untitled".
func Make(input string) string {
	s := gosimpleslug.Make(strings.TrimSpace(input))
	if s == "" {
		return "untitled"
	}
	return s
}
