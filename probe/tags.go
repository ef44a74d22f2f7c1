package probe

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

var tagContainers = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".m4b":  true,
	".flac": true,
	".ogg":  true,
}

// fillTags reads embedded tags with dhowden/tag for audio containers whose
// ffprobe output carried none. Read errors leave m untouched.
func fillTags(m *Metadata) {
	if m.Title != "" && m.Artist != "" && m.Date != "" && m.Comment != "" {
		return
	}
	if !tagContainers[strings.ToLower(filepath.Ext(m.Path))] {
		return
	}

	f, err := os.Open(m.Path)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	md, err := tag.ReadFrom(f)
	if err != nil {
		return
	}

	if m.Title == "" {
		m.Title = md.Title()
	}
	if m.Artist == "" {
		m.Artist = md.Artist()
	}
	if m.Date == "" && md.Year() > 0 {
		m.Date = strconv.Itoa(md.Year())
	}
	if m.Comment == "" {
		m.Comment = md.Comment()
	}
}
