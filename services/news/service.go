package news

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// Service implements the news destination handlers. File references are
// owned by the files service; the news record only carries a has_files
// flag and hands the references over by event after its own durable
// write succeeded.
type Service struct {
	store  Store
	files  messaging.Emitter
	logs   messaging.Emitter
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFilesEmitter routes file reference hand-offs to the files destination.
func WithFilesEmitter(files messaging.Emitter) Option {
	return func(s *Service) { s.files = files }
}

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

// NewService creates the news service over a store.
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

// Create stores a news item, then hands its file references to the files
// service. The emit happens only after the news row is durably written;
// a failed emit is logged but does not undo the creation.
func (s *Service) Create(ctx context.Context, req contracts.CreateNewsRequest) (*contracts.News, error) {
	if req.AuthorID == 0 || req.Title == "" || req.Body == "" {
		return nil, contracts.NewValidationError("authorId, title and body are required")
	}

	item, err := s.store.CreateNews(ctx, req.AuthorID, req.Title, req.Body, len(req.Files) > 0)
	if err != nil {
		return nil, err
	}

	if len(req.Files) > 0 && s.files != nil {
		err := s.files.Emit(ctx, contracts.PatternCreateFiles, contracts.CreateFilesRequest{
			NewsID: item.ID,
			Files:  req.Files,
		})
		if err != nil {
			s.logger.Error("failed to hand off files", "newsId", item.ID, "error", err)
			s.emitLog(ctx, contracts.LogError, "file hand-off failed", fmt.Sprintf("newsId=%d", item.ID))
		}
	}

	s.emitLog(ctx, contracts.LogAction, "news created", fmt.Sprintf("id=%d author=%d", item.ID, item.AuthorID))
	return item, nil
}

// FindAll lists news page by page, newest first.
func (s *Service) FindAll(ctx context.Context, req contracts.FindAllNewsRequest) ([]contracts.News, error) {
	limit, offset := req.Limits()
	return s.store.AllNews(ctx, limit, offset)
}

// Search matches title or body substrings and reports the total count.
func (s *Service) Search(ctx context.Context, req contracts.SearchNewsRequest) (*contracts.SearchNewsResponse, error) {
	limit, offset := req.Limits()
	items, total, err := s.store.SearchNews(ctx, req.Title, req.Body, limit, offset)
	if err != nil {
		return nil, err
	}
	return &contracts.SearchNewsResponse{News: items, Total: total}, nil
}

// FindOne fetches a news item and bumps its view counter.
func (s *Service) FindOne(ctx context.Context, req contracts.FindOneNewsRequest) (*contracts.News, error) {
	item, err := s.store.NewsByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementViews(ctx, item.ID); err != nil {
		return nil, err
	}
	item.Views++
	return item, nil
}

// BySubscriptions lists news authored by the given users. An empty author
// list short-circuits to an empty result.
func (s *Service) BySubscriptions(ctx context.Context, req contracts.UserSubscriptionsNewsRequest) ([]contracts.News, error) {
	if len(req.AuthorIDs) == 0 {
		return []contracts.News{}, nil
	}
	limit, offset := req.Limits()
	return s.store.NewsByAuthors(ctx, req.AuthorIDs, limit, offset)
}

// Update edits a news item. Only the author may change it.
func (s *Service) Update(ctx context.Context, req contracts.UpdateNewsRequest) (*contracts.News, error) {
	item, err := s.store.NewsByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if item.AuthorID != req.AuthorID {
		return nil, contracts.NewAuthError("only the author can update this news")
	}

	if req.Title != "" {
		item.Title = req.Title
	}
	if req.Body != "" {
		item.Body = req.Body
	}
	if req.Files != nil {
		item.HasFiles = len(req.Files) > 0
	}

	updated, err := s.store.UpdateNews(ctx, item)
	if err != nil {
		return nil, err
	}
	s.emitLog(ctx, contracts.LogAction, "news updated", fmt.Sprintf("id=%d", updated.ID))
	return updated, nil
}

// Delete removes a news item. Only the author may delete it. File cleanup
// is best-effort: the delete-files event goes out only after the news row
// is durably gone, and only when the item actually had files.
func (s *Service) Delete(ctx context.Context, req contracts.DeleteNewsRequest) (*contracts.AckResponse, error) {
	item, err := s.store.NewsByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if item.AuthorID != req.AuthorID {
		return nil, contracts.NewAuthError("only the author can delete this news")
	}

	if err := s.store.DeleteNews(ctx, req.ID); err != nil {
		return nil, err
	}

	if item.HasFiles && s.files != nil {
		err := s.files.Emit(ctx, contracts.PatternDeleteFiles, contracts.DeleteFilesRequest{NewsID: req.ID})
		if err != nil {
			s.logger.Error("failed to request file cleanup", "newsId", req.ID, "error", err)
			s.emitLog(ctx, contracts.LogError, "file cleanup request failed", fmt.Sprintf("newsId=%d", req.ID))
		}
	}

	s.emitLog(ctx, contracts.LogAction, "news deleted", fmt.Sprintf("id=%d", req.ID))
	return &contracts.AckResponse{Success: true, Message: "news deleted"}, nil
}

func (s *Service) emitLog(ctx context.Context, logType contracts.LogType, message, info string) {
	if s.logs == nil {
		return
	}
	record := contracts.NewLogRecord(contracts.ServiceNews, logType, message, info)
	if err := s.logs.Emit(ctx, contracts.PatternCreateLog, record); err != nil {
		s.logger.Warn("failed to emit log event", "error", err)
	}
}
