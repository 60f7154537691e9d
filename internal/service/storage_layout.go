package service

import (
	"fmt"

	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/pkg/storage"
)

// StorageLayout maps artifact kinds to their category roots inside the blob
// store. Keys look like <category>/<paperwork id>/v<N>/<fixed name>.
type StorageLayout struct {
	PDFDir   string
	LatexDir string
	CodeDir  string
	DocxDir  string
}

var artifactFilenames = map[models.FileKind]string{
	models.FilePDF:   "paper.pdf",
	models.FileLatex: "latex.tex",
	models.FileCode:  "code.zip",
	models.FileDocx:  "paper.docx",
}

var artifactContentTypes = map[models.FileKind]string{
	models.FilePDF:   "application/pdf",
	models.FileLatex: "text/plain; charset=utf-8",
	models.FileCode:  "application/zip",
	models.FileDocx:  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func (l StorageLayout) withDefaults() StorageLayout {
	if l.PDFDir == "" {
		l.PDFDir = "pdfs"
	}
	if l.LatexDir == "" {
		l.LatexDir = "latex"
	}
	if l.CodeDir == "" {
		l.CodeDir = "python"
	}
	if l.DocxDir == "" {
		l.DocxDir = "docx"
	}
	return l
}

func (l StorageLayout) category(kind models.FileKind) string {
	switch kind {
	case models.FilePDF:
		return l.PDFDir
	case models.FileLatex:
		return l.LatexDir
	case models.FileCode:
		return l.CodeDir
	default:
		return l.DocxDir
	}
}

// Key returns the storage key of kind for the given paperwork version.
func (l StorageLayout) Key(kind models.FileKind, paperworkID string, versionNo int) string {
	return storage.Key(l.category(kind), paperworkID, fmt.Sprintf("v%d", versionNo), artifactFilenames[kind])
}
