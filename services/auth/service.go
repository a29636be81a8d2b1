package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/internal/token"
	"github.com/newsbus/newsbus/messaging"
)

// Service implements the auth destination handlers.
type Service struct {
	store      Store
	secret     string
	tokenTTL   time.Duration
	bcryptCost int
	logs       messaging.Emitter
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost {
			s.bcryptCost = cost
		}
	}
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

// NewService creates the auth service over a store.
func NewService(store Store, jwtSecret string, opts ...Option) *Service {
	s := &Service{
		store:      store,
		secret:     jwtSecret,
		tokenTTL:   24 * time.Hour,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new user and returns it with a signed access token.
func (s *Service) Register(ctx context.Context, req contracts.RegisterRequest) (*contracts.AuthResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, contracts.NewValidationError("username, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, req.Username, req.Email, string(hash), contracts.RoleMember)
	if err != nil {
		if contracts.KindOf(err) == contracts.KindConflict {
			s.emitLog(ctx, contracts.LogWarning, "duplicate registration attempt", req.Email)
		}
		return nil, err
	}

	s.emitLog(ctx, contracts.LogAction, "user registered", user.Email)
	return s.authResponse(user)
}

// Login verifies credentials and returns a signed access token. Wrong
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req contracts.LoginRequest) (*contracts.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, contracts.NewValidationError("email and password are required")
	}

	user, hash, err := s.store.UserByEmail(ctx, req.Email)
	if err != nil {
		if contracts.KindOf(err) == contracts.KindNotFound {
			s.emitLog(ctx, contracts.LogWarning, "login failed", req.Email)
			return nil, contracts.NewAuthError("wrong email or password")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		s.emitLog(ctx, contracts.LogWarning, "login failed", req.Email)
		return nil, contracts.NewAuthError("wrong email or password")
	}

	return s.authResponse(user)
}

// AllUsers lists users page by page.
func (s *Service) AllUsers(ctx context.Context, req contracts.GetAllUsersRequest) ([]contracts.User, error) {
	limit, offset := req.Limits()
	return s.store.AllUsers(ctx, limit, offset)
}

// SearchUsers matches username or email substrings. At least one field
// must be set.
func (s *Service) SearchUsers(ctx context.Context, req contracts.SearchUsersRequest) ([]contracts.User, error) {
	if req.Username == "" && req.Email == "" {
		return nil, contracts.NewValidationError("at least one of username or email is required")
	}
	return s.store.SearchUsers(ctx, req.Username, req.Email)
}

// UserByID fetches one user.
func (s *Service) UserByID(ctx context.Context, id int64) (*contracts.User, error) {
	return s.store.UserByID(ctx, id)
}

// UsersByIDs batch-fetches users for aggregation joins. Unknown ids are
// simply absent from the result.
func (s *Service) UsersByIDs(ctx context.Context, req contracts.GetUsersByIDsRequest) ([]contracts.User, error) {
	return s.store.UsersByIDs(ctx, req.IDs)
}

// ShortUserInfo returns the trimmed author view of one user.
func (s *Service) ShortUserInfo(ctx context.Context, id int64) (*contracts.UserShort, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &contracts.UserShort{ID: user.ID, Username: user.Username, Avatar: user.Avatar}, nil
}

// Profile returns the user together with subscription counters.
func (s *Service) Profile(ctx context.Context, id int64) (*contracts.UserProfile, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	subscribers, subscriptions, err := s.store.Subscriptions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &contracts.UserProfile{
		User:            *user,
		SubscriberIDs:   subscribers,
		SubscriptionIDs: subscriptions,
	}, nil
}

// SubscriptionIDs lists the users the given user subscribes to.
func (s *Service) SubscriptionIDs(ctx context.Context, userID int64) ([]int64, error) {
	_, subscriptions, err := s.store.Subscriptions(ctx, userID)
	return subscriptions, err
}

// UpdateProfile changes the caller's own username or email.
func (s *Service) UpdateProfile(ctx context.Context, req contracts.UpdateUserProfileRequest) (*contracts.User, error) {
	if req.ID == 0 {
		return nil, contracts.NewValidationError("user id is required")
	}
	return s.store.UpdateProfile(ctx, req.ID, req.Username, req.Email)
}

// UpdateAvatar replaces the caller's avatar reference.
func (s *Service) UpdateAvatar(ctx context.Context, req contracts.UpdateUserAvatarRequest) (*contracts.User, error) {
	if req.ID == 0 {
		return nil, contracts.NewValidationError("user id is required")
	}
	return s.store.UpdateAvatar(ctx, req.ID, req.Avatar)
}

// Subscribe toggles a subscription. Subscribing to yourself is refused.
func (s *Service) Subscribe(ctx context.Context, req contracts.SubscribeOnUserRequest) (*contracts.AckResponse, error) {
	if req.UserID == 0 || req.SubscriptionUserID == 0 {
		return nil, contracts.NewValidationError("userId and subscriptionUserId are required")
	}
	if req.UserID == req.SubscriptionUserID {
		return nil, contracts.NewValidationError("cannot subscribe to yourself")
	}
	if _, err := s.store.UserByID(ctx, req.SubscriptionUserID); err != nil {
		return nil, err
	}

	subscribed, err := s.store.ToggleSubscription(ctx, req.UserID, req.SubscriptionUserID)
	if err != nil {
		return nil, err
	}
	if subscribed {
		return &contracts.AckResponse{Success: true, Message: "subscribed"}, nil
	}
	return &contracts.AckResponse{Success: true, Message: "unsubscribed"}, nil
}

// DeleteUser removes the user and their subscription edges.
func (s *Service) DeleteUser(ctx context.Context, req contracts.DeleteUserRequest) error {
	if req.ID == 0 {
		return contracts.NewValidationError("user id is required")
	}
	if err := s.store.DeleteUser(ctx, req.ID); err != nil {
		return err
	}
	s.emitLog(ctx, contracts.LogAction, "user deleted", fmt.Sprintf("id=%d", req.ID))
	return nil
}

func (s *Service) authResponse(user *contracts.User) (*contracts.AuthResponse, error) {
	signed, err := token.Sign(s.secret, user.ID, user.Email, user.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &contracts.AuthResponse{User: *user, AccessToken: signed}, nil
}

func (s *Service) emitLog(ctx context.Context, logType contracts.LogType, message, info string) {
	if s.logs == nil {
		return
	}
	record := contracts.NewLogRecord(contracts.ServiceAuth, logType, message, info)
	if err := s.logs.Emit(ctx, contracts.PatternCreateLog, record); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("failed to emit log event", "error", err)
	}
}
