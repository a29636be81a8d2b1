package logger

import (
	"context"
	"encoding/json"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// RegisterHandlers wires every logger pattern onto the worker.
func (s *Service) RegisterHandlers(w *messaging.Worker) {
	w.Handle(contracts.PatternCreateLog, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var record contracts.LogRecord
		if err := messaging.DecodePayload(payload, &record); err != nil {
			return nil, err
		}
		return nil, s.Create(ctx, record)
	})

	w.Handle(contracts.PatternGetAllLogs, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.GetAllLogsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.All(ctx, req)
	})

	w.Handle(contracts.PatternClearLogs, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.ClearLogsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return nil, s.Clear(ctx, req)
	})
}
