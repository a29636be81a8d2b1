package files

import (
	"context"
	"encoding/json"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// RegisterHandlers wires every files pattern onto the worker.
func (s *Service) RegisterHandlers(w *messaging.Worker) {
	w.Handle(contracts.PatternCreateFiles, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.CreateFilesRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return nil, s.Create(ctx, req)
	})

	w.Handle(contracts.PatternGetFilesByNewsID, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.GetFilesByNewsIDRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Get(ctx, req)
	})

	w.Handle(contracts.PatternGetFilesByNewsIDsList, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.GetFilesByNewsIDsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.GetBatch(ctx, req)
	})

	w.Handle(contracts.PatternUpdateFiles, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.UpdateFilesRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Update(ctx, req)
	})

	w.Handle(contracts.PatternDeleteFiles, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.DeleteFilesRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return nil, s.Delete(ctx, req)
	})
}
