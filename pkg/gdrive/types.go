package gdrive

import "strconv"

// RootFolderID is the service-defined identifier of the user's My Drive root.
const RootFolderID = "root"

// FolderMimeType is the MIME type Drive assigns to folders
const FolderMimeType = "application/vnd.google-apps.folder"

// Standard listing filters
const (
	FilterFolders    = `mimeType contains "` + FolderMimeType + `"`
	FilterNotFolders = `not mimeType contains "` + FolderMimeType + `"`
)

// Entry represents one file or folder record returned by a listing query
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Size is the string-encoded byte count, empty when Drive reports no size
	Size          string   `json:"size,omitempty"`
	MimeType      string   `json:"mime_type,omitempty"`
	PermissionIDs []string `json:"permission_ids,omitempty"`
}

// HasSize reports whether the entry carries a size
func (e Entry) HasSize() bool {
	return e.Size != ""
}

// IsFolder reports whether the entry is a folder
func (e Entry) IsFolder() bool {
	return e.MimeType == FolderMimeType
}

// FileSummary is the classified record returned for each qualifying file
type FileSummary struct {
	ID     string `json:"id"`
	Size   string `json:"size"`
	Name   string `json:"name"`
	Shared bool   `json:"shared"`
}

// Page is a single page of listing results
type Page struct {
	Entries       []Entry
	NextPageToken string
}

// ListRequest describes one page request against the gateway
type ListRequest struct {
	Query     string
	PageToken string
	PageSize  int64
	Fields    string
}

// Permission is a created sharing permission
type Permission struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Type string `json:"type"`
}

// Identity contains information about the authenticated user
type Identity struct {
	DisplayName  string `json:"display_name"`
	EmailAddress string `json:"email_address"`
	PermissionID string `json:"permission_id,omitempty"`
}

// RevokedGrant records a stale permission removed during a traversal
type RevokedGrant struct {
	FileID       string `json:"file_id"`
	FileName     string `json:"file_name"`
	PermissionID string `json:"permission_id"`
}

// SweepReport is the result of a traversal including the cleanup it performed
type SweepReport struct {
	FolderID  string         `json:"folder_id"`
	Recursive bool           `json:"recursive"`
	Files     []FileSummary  `json:"files"`
	Revoked   []RevokedGrant `json:"revoked,omitempty"`
}

// SharedCount returns how many files in the report are publicly shared
func (r *SweepReport) SharedCount() int {
	count := 0
	for _, f := range r.Files {
		if f.Shared {
			count++
		}
	}
	return count
}

// TotalBytes sums the sizes of the files in the report. Sizes that do not
// parse as integers are ignored.
func (r *SweepReport) TotalBytes() uint64 {
	var total uint64
	for _, f := range r.Files {
		if n, err := strconv.ParseUint(f.Size, 10, 64); err == nil {
			total += n
		}
	}
	return total
}
