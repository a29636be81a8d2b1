package files

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// Service implements the files destination handlers. Records hold URL
// references only; the bytes live elsewhere.
type Service struct {
	store  Store
	logs   messaging.Emitter
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogEmitter routes notable actions to the logger destination.
func WithLogEmitter(logs messaging.Emitter) Option {
	return func(s *Service) { s.logs = logs }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the files service over a store.
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

// Create stores the file set handed off by the news service. Failures
// here never reach the news entity; they requeue the event and surface
// through log records.
func (s *Service) Create(ctx context.Context, req contracts.CreateFilesRequest) error {
	if req.NewsID == 0 {
		return contracts.NewValidationError("newsId is required")
	}
	if len(req.Files) == 0 {
		return contracts.NewValidationError("files list is empty")
	}

	if err := s.store.ReplaceFiles(ctx, req.NewsID, req.Files); err != nil {
		s.emitLog(ctx, contracts.LogError, "file record creation failed", fmt.Sprintf("newsId=%d", req.NewsID))
		return err
	}
	s.emitLog(ctx, contracts.LogAction, "files recorded", fmt.Sprintf("newsId=%d count=%d", req.NewsID, len(req.Files)))
	return nil
}

// Get fetches the file URLs for one news item.
func (s *Service) Get(ctx context.Context, req contracts.GetFilesByNewsIDRequest) (*contracts.NewsFiles, error) {
	if req.NewsID == 0 {
		return nil, contracts.NewValidationError("newsId is required")
	}
	urls, err := s.store.FilesByNewsID(ctx, req.NewsID)
	if err != nil {
		return nil, err
	}
	return &contracts.NewsFiles{NewsID: req.NewsID, Files: urls}, nil
}

// GetBatch fetches file URLs for many news items at once, for the
// gateway's aggregation join. News items without files are absent from
// the result.
func (s *Service) GetBatch(ctx context.Context, req contracts.GetFilesByNewsIDsRequest) ([]contracts.NewsFiles, error) {
	return s.store.FilesByNewsIDs(ctx, req.NewsIDs)
}

// Update replaces the file set for a news item.
func (s *Service) Update(ctx context.Context, req contracts.UpdateFilesRequest) (*contracts.NewsFiles, error) {
	if req.NewsID == 0 {
		return nil, contracts.NewValidationError("newsId is required")
	}
	if err := s.store.ReplaceFiles(ctx, req.NewsID, req.Files); err != nil {
		return nil, err
	}
	return &contracts.NewsFiles{NewsID: req.NewsID, Files: req.Files}, nil
}

// Delete drops all file records for a news item. Arrives as a
// best-effort cleanup event after delete-news.
func (s *Service) Delete(ctx context.Context, req contracts.DeleteFilesRequest) error {
	if req.NewsID == 0 {
		return contracts.NewValidationError("newsId is required")
	}
	if err := s.store.DeleteFiles(ctx, req.NewsID); err != nil {
		return err
	}
	s.emitLog(ctx, contracts.LogAction, "files deleted", fmt.Sprintf("newsId=%d", req.NewsID))
	return nil
}

func (s *Service) emitLog(ctx context.Context, logType contracts.LogType, message, info string) {
	if s.logs == nil {
		return
	}
	record := contracts.NewLogRecord(contracts.ServiceFiles, logType, message, info)
	if err := s.logs.Emit(ctx, contracts.PatternCreateLog, record); err != nil {
		s.logger.Warn("failed to emit log event", "error", err)
	}
}
