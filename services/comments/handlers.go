package comments

import (
	"context"
	"encoding/json"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// RegisterHandlers wires every comments pattern onto the worker.
func (s *Service) RegisterHandlers(w *messaging.Worker) {
	w.Handle(contracts.PatternCreateComment, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.CreateCommentRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Create(ctx, req)
	})

	w.Handle(contracts.PatternFindAllComments, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.FindAllCommentsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.FindAll(ctx, req)
	})

	w.Handle(contracts.PatternFindNewsComments, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.FindNewsCommentsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.FindForNews(ctx, req)
	})

	w.Handle(contracts.PatternFindCommentByID, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.FindCommentByIDRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.FindByID(ctx, req)
	})

	w.Handle(contracts.PatternUpdateComment, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.UpdateCommentRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Update(ctx, req)
	})

	w.Handle(contracts.PatternDeleteComment, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.DeleteCommentRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Delete(ctx, req)
	})
}
