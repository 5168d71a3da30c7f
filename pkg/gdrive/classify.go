package gdrive

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// PublicSharePermissionID is the permission identifier Drive uses for anyone-with-link access
const PublicSharePermissionID = "anyoneWithLink"

const staleGrantSuffix = "k"

// IsPublicShare reports whether permissionID grants anyone-with-link access
func IsPublicShare(permissionID string) bool {
	return permissionID == PublicSharePermissionID
}

// IsStaleGrant reports whether permissionID has the deprecated "<digits>k" shape.
// The digit prefix may be empty, so "k" alone matches.
func IsStaleGrant(permissionID string) bool {
	if !strings.HasSuffix(permissionID, staleGrantSuffix) {
		return false
	}
	for _, c := range strings.TrimSuffix(permissionID, staleGrantSuffix) {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Classify reports whether entry is publicly shared, revoking every stale
// grant it carries in list order. A failed revocation aborts classification.
func (s *Service) Classify(ctx context.Context, entry Entry) (bool, error) {
	shared, _, err := s.classify(ctx, entry)
	return shared, err
}

func (s *Service) classify(ctx context.Context, entry Entry) (bool, []RevokedGrant, error) {
	shared := false
	if len(entry.PermissionIDs) == 0 {
		return shared, nil, nil
	}

	var revoked []RevokedGrant
	for _, permissionID := range entry.PermissionIDs {
		if IsStaleGrant(permissionID) {
			if err := s.DeletePermission(ctx, entry.ID, permissionID); err != nil {
				return false, nil, err
			}
			revoked = append(revoked, RevokedGrant{
				FileID:       entry.ID,
				FileName:     entry.Name,
				PermissionID: permissionID,
			})
		}

		if IsPublicShare(permissionID) {
			shared = true
		}
	}

	return shared, revoked, nil
}

// DeletePermission revokes a single permission on a file
func (s *Service) DeletePermission(ctx context.Context, fileID, permissionID string) error {
	if err := s.gateway.DeletePermission(ctx, fileID, permissionID); err != nil {
		return fmt.Errorf("failed to delete permission %s on %s: %w", permissionID, fileID, err)
	}
	log.Printf("Revoked stale permission '%s' on file %s", permissionID, fileID)
	return nil
}
