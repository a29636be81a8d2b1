package logger

import (
	"context"
	"log/slog"

	"github.com/newsbus/newsbus/contracts"
)

// Service implements the logger destination handlers. Every persisted
// record is also mirrored to the service's own structured log output at
// the matching level.
type Service struct {
	store  Store
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the mirror target for persisted records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the logger service over a store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists one log record and mirrors it by level.
func (s *Service) Create(ctx context.Context, record contracts.LogRecord) error {
	switch record.Type {
	case contracts.LogAction, contracts.LogWarning, contracts.LogError:
	default:
		return contracts.NewValidationError("unknown log type %q", record.Type)
	}
	if record.Microservice == "" || record.Message == "" {
		return contracts.NewValidationError("microservice and message are required")
	}

	if err := s.store.InsertLog(ctx, record); err != nil {
		return err
	}
	s.mirror(record)
	return nil
}

// All lists stored records, optionally filtered by type.
func (s *Service) All(ctx context.Context, req contracts.GetAllLogsRequest) ([]contracts.LogRecord, error) {
	switch req.Type {
	case "", contracts.LogAction, contracts.LogWarning, contracts.LogError:
	default:
		return nil, contracts.NewValidationError("unknown log type %q", req.Type)
	}
	limit, offset := req.Limits()
	return s.store.Logs(ctx, req.Type, limit, offset)
}

// Clear drops stored records, optionally filtered by type.
func (s *Service) Clear(ctx context.Context, req contracts.ClearLogsRequest) error {
	n, err := s.store.ClearLogs(ctx, req.Type)
	if err != nil {
		return err
	}
	s.logger.Info("logs cleared", "type", string(req.Type), "removed", n)
	return nil
}

func (s *Service) mirror(record contracts.LogRecord) {
	attrs := []any{
		"microservice", record.Microservice,
		"additionalInfo", record.AdditionalInfo,
	}
	switch record.Type {
	case contracts.LogError:
		s.logger.Error(record.Message, attrs...)
	case contracts.LogWarning:
		s.logger.Warn(record.Message, attrs...)
	default:
		s.logger.Info(record.Message, attrs...)
	}
}
