package gdrive

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Gateway is the authenticated remote storage boundary
type Gateway interface {
	// List returns one page of entries matching the request
	List(ctx context.Context, req ListRequest) (*Page, error)

	// DeletePermission revokes a permission on a file
	DeletePermission(ctx context.Context, fileID, permissionID string) error

	// CreatePermission grants a permission on a file
	CreatePermission(ctx context.Context, fileID, role, principalType string) (*Permission, error)

	// AboutSelf returns the identity of the authenticated user
	AboutSelf(ctx context.Context) (*Identity, error)
}

// AuthProvider supplies OAuth2 credentials for Drive calls
type AuthProvider interface {
	GetClient() (*oauth2.Config, *oauth2.Token, error)
}

// DriveGateway implements Gateway on top of the Drive v3 API
type DriveGateway struct {
	authService AuthProvider
	endpoint    string
	limiter     *rate.Limiter
}

// GatewayOption configures a DriveGateway
type GatewayOption func(*DriveGateway)

// WithEndpoint overrides the Drive API base URL
func WithEndpoint(endpoint string) GatewayOption {
	return func(g *DriveGateway) {
		g.endpoint = endpoint
	}
}

// WithRateLimit paces outgoing requests to rps requests per second.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) GatewayOption {
	return func(g *DriveGateway) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewDriveGateway creates a new Drive gateway
func NewDriveGateway(authService AuthProvider, opts ...GatewayOption) *DriveGateway {
	g := &DriveGateway{authService: authService}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// authorizedCall obtains a fresh authorized Drive client, applies pacing and
// dispatches call. Every gateway operation goes through here.
func authorizedCall[T any](ctx context.Context, g *DriveGateway, op string, call func(*drive.Service) (T, error)) (T, error) {
	var zero T

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return zero, newGatewayError(op, err)
		}
	}

	config, token, err := g.authService.GetClient()
	if err != nil {
		return zero, &AuthError{Err: fmt.Errorf("failed to get authenticated client: %w", err)}
	}

	opts := []option.ClientOption{option.WithHTTPClient(config.Client(ctx, token))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}

	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return zero, newGatewayError(op, fmt.Errorf("failed to create drive service: %w", err))
	}

	result, err := call(driveService)
	if err != nil {
		return zero, newGatewayError(op, err)
	}
	return result, nil
}

// List returns one page of a files query
func (g *DriveGateway) List(ctx context.Context, req ListRequest) (*Page, error) {
	return authorizedCall(ctx, g, "list files", func(svc *drive.Service) (*Page, error) {
		call := svc.Files.List().
			Q(req.Query).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)

		if req.PageSize > 0 {
			call = call.PageSize(req.PageSize)
		}
		if req.Fields != "" {
			call = call.Fields(googleapi.Field(req.Fields))
		}
		if req.PageToken != "" {
			call = call.PageToken(req.PageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, err
		}

		page := &Page{
			Entries:       make([]Entry, 0, len(res.Files)),
			NextPageToken: res.NextPageToken,
		}
		for _, f := range res.Files {
			page.Entries = append(page.Entries, entryFromDrive(f))
		}
		return page, nil
	})
}

// DeletePermission revokes a permission on a file
func (g *DriveGateway) DeletePermission(ctx context.Context, fileID, permissionID string) error {
	_, err := authorizedCall(ctx, g, "delete permission", func(svc *drive.Service) (struct{}, error) {
		return struct{}{}, svc.Permissions.Delete(fileID, permissionID).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	})
	return err
}

// CreatePermission grants a permission on a file
func (g *DriveGateway) CreatePermission(ctx context.Context, fileID, role, principalType string) (*Permission, error) {
	return authorizedCall(ctx, g, "create permission", func(svc *drive.Service) (*Permission, error) {
		res, err := svc.Permissions.Create(fileID, &drive.Permission{
			Role: role,
			Type: principalType,
		}).
			SupportsAllDrives(true).
			Fields("id,role,type").
			Context(ctx).
			Do()
		if err != nil {
			return nil, err
		}
		return &Permission{ID: res.Id, Role: res.Role, Type: res.Type}, nil
	})
}

// AboutSelf returns the authenticated user
func (g *DriveGateway) AboutSelf(ctx context.Context) (*Identity, error) {
	return authorizedCall(ctx, g, "about", func(svc *drive.Service) (*Identity, error) {
		about, err := svc.About.Get().Fields("user").Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		identity := &Identity{}
		if about.User != nil {
			identity.DisplayName = about.User.DisplayName
			identity.EmailAddress = about.User.EmailAddress
			identity.PermissionID = about.User.PermissionId
		}
		return identity, nil
	})
}

// entryFromDrive converts a Drive file. Drive omits size for Google-native
// documents, which decodes to zero, so those are reported without a size.
func entryFromDrive(f *drive.File) Entry {
	entry := Entry{
		ID:            f.Id,
		Name:          f.Name,
		MimeType:      f.MimeType,
		PermissionIDs: f.PermissionIds,
	}
	if f.Size != 0 || !strings.HasPrefix(f.MimeType, "application/vnd.google-apps.") {
		entry.Size = strconv.FormatInt(f.Size, 10)
	}
	return entry
}
