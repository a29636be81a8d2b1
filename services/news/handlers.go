package news

import (
	"context"
	"encoding/json"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// RegisterHandlers wires every news pattern onto the worker. create-news
// arrives as an event: the gateway already answered its caller, so the
// result here matters only for the acknowledgment decision.
func (s *Service) RegisterHandlers(w *messaging.Worker) {
	w.Handle(contracts.PatternCreateNews, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.CreateNewsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Create(ctx, req)
	})

	w.Handle(contracts.PatternFindAllNews, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.FindAllNewsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.FindAll(ctx, req)
	})

	w.Handle(contracts.PatternSearchNews, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.SearchNewsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Search(ctx, req)
	})

	w.Handle(contracts.PatternFindOneNews, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.FindOneNewsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.FindOne(ctx, req)
	})

	w.Handle(contracts.PatternUserSubscriptionsNews, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.UserSubscriptionsNewsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.BySubscriptions(ctx, req)
	})

	w.Handle(contracts.PatternUpdateNews, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.UpdateNewsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Update(ctx, req)
	})

	w.Handle(contracts.PatternDeleteNews, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.DeleteNewsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Delete(ctx, req)
	})
}
