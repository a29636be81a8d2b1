package contracts

import "time"

// User roles.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// User is the identity record as exchanged between services. The password
// hash never leaves the auth service.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserShort is the trimmed author view merged into aggregated responses.
type UserShort struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// UserProfile extends User with subscription counters.
type UserProfile struct {
	User
	SubscriberIDs   []int64 `json:"subscriberIds,omitempty"`
	SubscriptionIDs []int64 `json:"subscriptionIds,omitempty"`
}

// RegisterRequest is the payload of the register command.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload of the login command.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse answers both register and login.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

// GetAllUsersRequest lists users with pagination.
type GetAllUsersRequest struct {
	Pagination
}

// SearchUsersRequest matches username or email substrings. At least one
// field must be non-empty.
type SearchUsersRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// GetUsersByIDsRequest batch-fetches users for aggregation joins.
type GetUsersByIDsRequest struct {
	IDs []int64 `json:"ids"`
}

// UpdateUserProfileRequest updates the caller's own profile.
type UpdateUserProfileRequest struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// UpdateUserAvatarRequest replaces the caller's avatar reference.
type UpdateUserAvatarRequest struct {
	ID     int64  `json:"id"`
	Avatar string `json:"avatar"`
}

// SubscribeOnUserRequest toggles userID's subscription to subscriptionUserID.
type SubscribeOnUserRequest struct {
	UserID             int64 `json:"userId"`
	SubscriptionUserID int64 `json:"subscriptionUserId"`
}

// DeleteUserRequest is the payload of the delete-user event.
type DeleteUserRequest struct {
	ID int64 `json:"id"`
}

// AckResponse is the generic success/failure reply for mutating commands.
type AckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
