package gdrive

import (
	"context"
	"fmt"
	"strings"
)

const (
	// maxPageSize is the largest page Drive serves for files.list
	maxPageSize = 1000

	listFields = "files(id,name,size,mimeType,permissionIds),nextPageToken"
)

// BuildQuery joins the parent, filter and not-trashed clauses with "and".
// An empty filter is left out of the conjunction.
func BuildQuery(parentID, filter string) string {
	terms := []string{fmt.Sprintf("%q in parents", parentID)}
	if strings.TrimSpace(filter) != "" {
		terms = append(terms, filter)
	}
	terms = append(terms, "trashed = false")
	return strings.Join(terms, " and ")
}

// List drains a filtered listing of parentID across all pages.
// Any page failure discards the pages already read.
func (s *Service) List(ctx context.Context, parentID, filter string) ([]Entry, error) {
	req := ListRequest{
		Query:    BuildQuery(parentID, filter),
		PageSize: maxPageSize,
		Fields:   listFields,
	}

	var entries []Entry
	for {
		page, err := s.gateway.List(ctx, req)
		if err != nil {
			return nil, err
		}

		entries = append(entries, page.Entries...)

		if page.NextPageToken == "" {
			break
		}
		req.PageToken = page.NextPageToken
	}

	return entries, nil
}

// ListFolders lists the direct subfolders of folderID
func (s *Service) ListFolders(ctx context.Context, folderID string) ([]Entry, error) {
	return s.List(ctx, folderID, FilterFolders)
}

// ListFiles lists the direct non-folder children of folderID
func (s *Service) ListFiles(ctx context.Context, folderID string) ([]Entry, error) {
	return s.List(ctx, folderID, FilterNotFolders)
}

// ListMyDriveFolders lists the folders at the root of My Drive
func (s *Service) ListMyDriveFolders(ctx context.Context) ([]Entry, error) {
	return s.ListFolders(ctx, RootFolderID)
}

// ListMyDriveFiles lists the files at the root of My Drive
func (s *Service) ListMyDriveFiles(ctx context.Context) ([]Entry, error) {
	return s.ListFiles(ctx, RootFolderID)
}
