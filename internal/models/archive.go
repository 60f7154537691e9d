package models

// ArchiveEntry is the decoded content of one file inside a code archive.
type ArchiveEntry struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	IsBinary    bool   `json:"is_binary"`
	Size        uint64 `json:"size"`
}
