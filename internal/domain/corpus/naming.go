package corpus

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

const (
	dirPaper                 = "papers"
	dirMarkingScheme         = "markingscheme"
	dirDeferredPaper         = "deferredpaper"
	dirDeferredMarkingScheme = "deferredmarkingscheme"
)

var filenamePattern = regexp.MustCompile(`^(\d{4})-(?:paper(\d+)|markingscheme)\.pdf$`)

// ParseKey maps a corpus relative key such as "papers/2019-paper1.pdf" to its Document.
// Keys outside the known directories or not following the naming convention are rejected.
func ParseKey(key string) (Document, bool) {
	key = strings.TrimPrefix(path.Clean(strings.ReplaceAll(key, "\\", "/")), "/")
	dir, name := path.Split(key)
	dir = strings.TrimSuffix(dir, "/")
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[i+1:]
	}

	m := filenamePattern.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return Document{}, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return Document{}, false
	}
	doc := Document{Year: year}
	if m[2] != "" {
		doc.Kind = KindPaper
		doc.Paper, _ = strconv.Atoi(m[2])
	} else {
		doc.Kind = KindMarkingScheme
	}

	switch dir {
	case dirPaper:
		if doc.Kind != KindPaper {
			return Document{}, false
		}
	case dirDeferredPaper:
		if doc.Kind != KindPaper {
			return Document{}, false
		}
		doc.Deferred = true
	case dirMarkingScheme:
		if doc.Kind != KindMarkingScheme {
			return Document{}, false
		}
	case dirDeferredMarkingScheme:
		if doc.Kind != KindMarkingScheme {
			return Document{}, false
		}
		doc.Deferred = true
	default:
		return Document{}, false
	}
	return doc, true
}

// Directories lists the corpus directories in scan order.
func Directories() []string {
	return []string{dirPaper, dirMarkingScheme, dirDeferredPaper, dirDeferredMarkingScheme}
}
