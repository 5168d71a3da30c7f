package gdrive

import (
	"context"
	"fmt"
	"log"
)

// Roles and principal types used for public sharing
const (
	RoleReader = "reader"
	TypeAnyone = "anyone"
)

// Share grants public read-only link access to a file. Repeated calls may
// create duplicate permissions.
func (s *Service) Share(ctx context.Context, fileID string) (*Permission, error) {
	permission, err := s.gateway.CreatePermission(ctx, fileID, RoleReader, TypeAnyone)
	if err != nil {
		return nil, fmt.Errorf("failed to share file %s: %w", fileID, err)
	}
	log.Printf("Shared file %s with anyone (reader)", fileID)
	return permission, nil
}

// TriggerAuth performs a minimal authenticated call so that any pending
// consent or token refresh completes.
func (s *Service) TriggerAuth(ctx context.Context) (*Identity, error) {
	identity, err := s.gateway.AboutSelf(ctx)
	if err != nil {
		if isAuthFailure(err) {
			return nil, asAuthError(err)
		}
		return nil, fmt.Errorf("failed to fetch account info: %w", err)
	}
	return identity, nil
}
