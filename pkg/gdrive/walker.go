package gdrive

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
)

// walkResult accumulates the output of a traversal
type walkResult struct {
	files   []FileSummary
	revoked []RevokedGrant
}

func (r *walkResult) merge(other walkResult) {
	r.files = append(r.files, other.files...)
	r.revoked = append(r.revoked, other.revoked...)
}

// Collect returns a summary of every sized file under folderID. Direct files
// come first in listing order, followed by each subfolder's files depth-first
// when recursive is set.
func (s *Service) Collect(ctx context.Context, folderID string, recursive bool) ([]FileSummary, error) {
	report, err := s.Sweep(ctx, folderID, recursive)
	if err != nil {
		return nil, err
	}
	return report.Files, nil
}

// CollectMyDrive runs Collect from the My Drive root
func (s *Service) CollectMyDrive(ctx context.Context, recursive bool) ([]FileSummary, error) {
	return s.Collect(ctx, RootFolderID, recursive)
}

// Sweep traverses folderID like Collect and also reports the stale grants
// revoked along the way.
func (s *Service) Sweep(ctx context.Context, folderID string, recursive bool) (*SweepReport, error) {
	var (
		result walkResult
		err    error
	)

	if recursive && s.workers > 1 {
		result, err = s.walkParallel(ctx, folderID)
	} else {
		result, err = s.walk(ctx, folderID, recursive)
	}
	if err != nil {
		return nil, err
	}

	if len(result.revoked) > 0 {
		log.Printf("Traversal of folder %s revoked %d stale permissions", folderID, len(result.revoked))
	}

	return &SweepReport{
		FolderID:  folderID,
		Recursive: recursive,
		Files:     result.files,
		Revoked:   result.revoked,
	}, nil
}

// walk traverses depth-first with an explicit stack of pending folder ids
func (s *Service) walk(ctx context.Context, folderID string, recursive bool) (walkResult, error) {
	var result walkResult

	pending := []string{folderID}
	for len(pending) > 0 {
		current := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		files, err := s.collectFiles(ctx, current)
		if err != nil {
			return walkResult{}, err
		}
		result.merge(files)

		if !recursive {
			continue
		}

		folders, err := s.ListFolders(ctx, current)
		if err != nil {
			return walkResult{}, fmt.Errorf("failed to list subfolders of %s: %w", current, err)
		}

		// Pushed in reverse so the first listed subfolder is visited next
		for i := len(folders) - 1; i >= 0; i-- {
			pending = append(pending, folders[i].ID)
		}
	}

	return result, nil
}

// walkParallel descends into subfolders concurrently, bounded per level by
// the worker count, and concatenates their results in listing order.
func (s *Service) walkParallel(ctx context.Context, folderID string) (walkResult, error) {
	result, err := s.collectFiles(ctx, folderID)
	if err != nil {
		return walkResult{}, err
	}

	folders, err := s.ListFolders(ctx, folderID)
	if err != nil {
		return walkResult{}, fmt.Errorf("failed to list subfolders of %s: %w", folderID, err)
	}

	children := make([]walkResult, len(folders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, folder := range folders {
		i, folder := i, folder
		g.Go(func() error {
			child, err := s.walkParallel(gctx, folder.ID)
			if err != nil {
				return err
			}
			children[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return walkResult{}, err
	}

	for _, child := range children {
		result.merge(child)
	}
	return result, nil
}

// collectFiles classifies the direct files of a folder. Entries without a
// size are skipped.
func (s *Service) collectFiles(ctx context.Context, folderID string) (walkResult, error) {
	entries, err := s.ListFiles(ctx, folderID)
	if err != nil {
		return walkResult{}, fmt.Errorf("failed to list files in %s: %w", folderID, err)
	}

	var result walkResult
	for _, entry := range entries {
		if entry.ID == "" || !entry.HasSize() {
			continue
		}

		shared, revoked, err := s.classify(ctx, entry)
		if err != nil {
			return walkResult{}, err
		}

		result.files = append(result.files, FileSummary{
			ID:     entry.ID,
			Size:   entry.Size,
			Name:   entry.Name,
			Shared: shared,
		})
		result.revoked = append(result.revoked, revoked...)
	}

	return result, nil
}
