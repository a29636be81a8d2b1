package comments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// Service implements the comments destination handlers.
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

// NewService creates the comments service over a store.
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

// Create adds a comment, optionally as a reply. Replies nest exactly one
// level: replying to a reply is refused, as is a parent from another
// news item.
func (s *Service) Create(ctx context.Context, req contracts.CreateCommentRequest) (*contracts.Comment, error) {
	if req.NewsID == 0 || req.AuthorID == 0 || req.Text == "" {
		return nil, contracts.NewValidationError("newsId, authorId and text are required")
	}

	if req.ParentCommentID != 0 {
		parent, err := s.store.CommentByID(ctx, req.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent.ParentCommentID != 0 {
			return nil, contracts.NewValidationError("cannot reply to a reply")
		}
		if parent.NewsID != req.NewsID {
			return nil, contracts.NewValidationError("parent comment belongs to another news item")
		}
	}

	comment, err := s.store.CreateComment(ctx, req.NewsID, req.AuthorID, req.ParentCommentID, req.Text)
	if err != nil {
		return nil, err
	}
	s.emitLog(ctx, contracts.LogAction, "comment created", fmt.Sprintf("id=%d news=%d", comment.ID, comment.NewsID))
	return comment, nil
}

// FindAll lists top-level comments with their replies.
func (s *Service) FindAll(ctx context.Context, req contracts.FindAllCommentsRequest) ([]contracts.Comment, error) {
	limit, offset := req.Limits()
	return s.store.AllComments(ctx, limit, offset)
}

// FindForNews lists comments under one news item.
func (s *Service) FindForNews(ctx context.Context, req contracts.FindNewsCommentsRequest) ([]contracts.Comment, error) {
	if req.NewsID == 0 {
		return nil, contracts.NewValidationError("newsId is required")
	}
	limit, offset := req.Limits()
	return s.store.NewsComments(ctx, req.NewsID, limit, offset)
}

// FindByID fetches one comment with its replies.
func (s *Service) FindByID(ctx context.Context, req contracts.FindCommentByIDRequest) (*contracts.Comment, error) {
	return s.store.CommentByID(ctx, req.ID)
}

// Update edits a comment's text. Only the author may change it.
func (s *Service) Update(ctx context.Context, req contracts.UpdateCommentRequest) (*contracts.Comment, error) {
	if req.Text == "" {
		return nil, contracts.NewValidationError("text is required")
	}

	comment, err := s.store.CommentByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != req.AuthorID {
		return nil, contracts.NewAuthError("only the author can update this comment")
	}
	return s.store.UpdateComment(ctx, req.ID, req.Text)
}

// Delete removes a comment and its replies. Only the author may delete it.
func (s *Service) Delete(ctx context.Context, req contracts.DeleteCommentRequest) (*contracts.AckResponse, error) {
	comment, err := s.store.CommentByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != req.AuthorID {
		return nil, contracts.NewAuthError("only the author can delete this comment")
	}

	if err := s.store.DeleteComment(ctx, req.ID); err != nil {
		return nil, err
	}
	s.emitLog(ctx, contracts.LogAction, "comment deleted", fmt.Sprintf("id=%d", req.ID))
	return &contracts.AckResponse{Success: true, Message: "comment deleted"}, nil
}

func (s *Service) emitLog(ctx context.Context, logType contracts.LogType, message, info string) {
	if s.logs == nil {
		return
	}
	record := contracts.NewLogRecord(contracts.ServiceComments, logType, message, info)
	if err := s.logs.Emit(ctx, contracts.PatternCreateLog, record); err != nil {
		s.logger.Warn("failed to emit log event", "error", err)
	}
}
