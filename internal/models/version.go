package models

import (
	"errors"
	"time"
)

// ErrVersionExists reports a version number already taken for a paperwork.
var ErrVersionExists = errors.New("version number already exists")

// FileKind names one of the artifact slots on a version.
type FileKind string

const (
	FilePDF   FileKind = "pdf"
	FileLatex FileKind = "tex"
	FileCode  FileKind = "zip"
	FileDocx  FileKind = "docx"
)

// FileKinds lists every artifact slot.
var FileKinds = []FileKind{FilePDF, FileLatex, FileCode, FileDocx}

// Valid reports whether k is a known artifact slot.
func (k FileKind) Valid() bool {
	switch k {
	case FilePDF, FileLatex, FileCode, FileDocx:
		return true
	}
	return false
}

// Version is one submitted snapshot of a paperwork's artifacts. File fields
// hold storage keys relative to the media root.
type Version struct {
	ID                string    `db:"id" json:"id"`
	PaperworkID       string    `db:"paperwork_id" json:"paperwork_id"`
	VersionNo         int       `db:"version_no" json:"version_no"`
	SubmittedAt       time.Time `db:"submitted_at" json:"submitted_at"`
	PDFFile           *string   `db:"pdf_file" json:"pdf_file,omitempty"`
	LatexFile         *string   `db:"latex_file" json:"latex_file,omitempty"`
	PythonFile        *string   `db:"python_file" json:"python_file,omitempty"`
	DocxFile          *string   `db:"docx_file" json:"docx_file,omitempty"`
	AIPercentSelf     float64   `db:"ai_percent_self" json:"ai_percent_self"`
	AIPercentVerified *float64  `db:"ai_percent_verified" json:"ai_percent_verified,omitempty"`
}

// FileKey returns the stored key for kind, if the version has one.
func (v *Version) FileKey(kind FileKind) (string, bool) {
	var key *string
	switch kind {
	case FilePDF:
		key = v.PDFFile
	case FileLatex:
		key = v.LatexFile
	case FileCode:
		key = v.PythonFile
	case FileDocx:
		key = v.DocxFile
	}
	if key == nil || *key == "" {
		return "", false
	}
	return *key, true
}

// SetFileKey records key against kind.
func (v *Version) SetFileKey(kind FileKind, key string) {
	k := key
	switch kind {
	case FilePDF:
		v.PDFFile = &k
	case FileLatex:
		v.LatexFile = &k
	case FileCode:
		v.PythonFile = &k
	case FileDocx:
		v.DocxFile = &k
	}
}

// FileKeys returns every stored key on the version.
func (v *Version) FileKeys() []string {
	keys := make([]string, 0, len(FileKinds))
	for _, kind := range FileKinds {
		if key, ok := v.FileKey(kind); ok {
			keys = append(keys, key)
		}
	}
	return keys
}
