package auth

import (
	"context"
	"encoding/json"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// RegisterHandlers wires every auth pattern onto the worker.
func (s *Service) RegisterHandlers(w *messaging.Worker) {
	w.Handle(contracts.PatternRegister, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.RegisterRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Register(ctx, req)
	})

	w.Handle(contracts.PatternLogin, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.LoginRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Login(ctx, req)
	})

	w.Handle(contracts.PatternGetAllUsers, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.GetAllUsersRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.AllUsers(ctx, req)
	})

	w.Handle(contracts.PatternSearchUsers, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.SearchUsersRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.SearchUsers(ctx, req)
	})

	w.Handle(contracts.PatternGetUserByID, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req struct {
			ID int64 `json:"id"`
		}
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.UserByID(ctx, req.ID)
	})

	w.Handle(contracts.PatternGetUsersByIDs, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.GetUsersByIDsRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.UsersByIDs(ctx, req)
	})

	w.Handle(contracts.PatternGetShortUserInfo, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req struct {
			ID int64 `json:"id"`
		}
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.ShortUserInfo(ctx, req.ID)
	})

	w.Handle(contracts.PatternGetUserProfile, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req struct {
			ID int64 `json:"id"`
		}
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Profile(ctx, req.ID)
	})

	w.Handle(contracts.PatternUserSubscriptions, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req struct {
			ID int64 `json:"id"`
		}
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.SubscriptionIDs(ctx, req.ID)
	})

	w.Handle(contracts.PatternUpdateUserProfile, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.UpdateUserProfileRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.UpdateProfile(ctx, req)
	})

	w.Handle(contracts.PatternUpdateUserAvatar, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.UpdateUserAvatarRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.UpdateAvatar(ctx, req)
	})

	w.Handle(contracts.PatternSubscribeOnUser, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.SubscribeOnUserRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Subscribe(ctx, req)
	})

	w.Handle(contracts.PatternDeleteUser, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req contracts.DeleteUserRequest
		if err := messaging.DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return nil, s.DeleteUser(ctx, req)
	})
}
