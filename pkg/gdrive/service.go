package gdrive

// Service handles Google Drive traversal, sharing classification and cleanup
type Service struct {
	gateway Gateway
	workers int
}

// Option configures a Service
type Option func(*Service)

// WithWorkers sets how many subfolders may be traversed concurrently.
// Values below 2 keep traversal sequential.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

// NewService creates a new Google Drive service
func NewService(gateway Gateway, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		workers: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
