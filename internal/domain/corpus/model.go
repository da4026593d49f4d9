package corpus

import (
	"fmt"
	"io"
	"time"
)

// Kind distinguishes exam papers from their marking schemes.
type Kind string

const (
	KindPaper         Kind = "paper"
	KindMarkingScheme Kind = "markingScheme"
)

// Document identifies one file of the corpus.
type Document struct {
	Year     int  `json:"year"`
	Kind     Kind `json:"kind"`
	Paper    int  `json:"paper,omitempty"`
	Deferred bool `json:"deferred,omitempty"`
}

// Filename is the base name the corpus stores the document under.
func (d Document) Filename() string {
	if d.Kind == KindMarkingScheme {
		return fmt.Sprintf("%d-markingscheme.pdf", d.Year)
	}
	return fmt.Sprintf("%d-paper%d.pdf", d.Year, d.Paper)
}

// Key is the slash separated path relative to the corpus root.
func (d Document) Key() string {
	return d.directory() + "/" + d.Filename()
}

func (d Document) directory() string {
	switch {
	case d.Kind == KindMarkingScheme && d.Deferred:
		return dirDeferredMarkingScheme
	case d.Kind == KindMarkingScheme:
		return dirMarkingScheme
	case d.Deferred:
		return dirDeferredPaper
	default:
		return dirPaper
	}
}

func (d Document) String() string {
	return d.Key()
}

// Less orders documents by year, kind, paper, then deferred last.
func (d Document) Less(o Document) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Kind != o.Kind {
		return d.Kind == KindPaper
	}
	if d.Paper != o.Paper {
		return d.Paper < o.Paper
	}
	return !d.Deferred && o.Deferred
}

// Page is the extracted text of one 1-based page.
type Page struct {
	Number int
	Text   string
}

// Object is an opened document body.
type Object struct {
	Body    io.ReadCloser
	Size    int64
	ModTime time.Time
}

// PaperListing groups the papers of a year for catalog views.
type PaperListing struct {
	Year             int        `json:"year"`
	Papers           []Document `json:"papers"`
	HasMarkingScheme bool       `json:"hasMarkingScheme"`
}
