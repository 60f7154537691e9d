package dto

// ArchiveContentsResponse lists the entries of a stored code archive.
type ArchiveContentsResponse struct {
	Version int      `json:"version"`
	Entries []string `json:"entries"`
}
