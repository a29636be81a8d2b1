// Package gateway is the HTTP edge of the platform. Every request is
// translated into commands and events on the broker, bounded by a fixed
// reply ceiling, and aggregated responses are joined here.
package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/messaging"
)

// Sender is the request/reply and fire-and-forget surface of one
// destination client.
type Sender interface {
	Send(ctx context.Context, pattern string, payload, out any) error
	Emit(ctx context.Context, pattern string, payload any) error
}

// Clients bundles the per-destination senders the gateway talks to.
type Clients struct {
	Auth     Sender
	News     Sender
	Comments Sender
	Files    Sender
	Logs     Sender
}

// NewClients builds the bundle from a messaging registry.
func NewClients(reg *messaging.Registry) Clients {
	return Clients{
		Auth:     reg.Client(contracts.DestAuth),
		News:     reg.Client(contracts.DestNews),
		Comments: reg.Client(contracts.DestComments),
		Files:    reg.Client(contracts.DestFiles),
		Logs:     reg.Client(contracts.DestLogger),
	}
}

// Server is the HTTP gateway.
type Server struct {
	clients   Clients
	jwtSecret string
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTimeout overrides the request ceiling applied at the boundary.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates the gateway over the destination clients.
func NewServer(clients Clients, jwtSecret string, opts ...Option) *Server {
	s := &Server{
		clients:   clients,
		jwtSecret: jwtSecret,
		timeout:   10 * time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// The breaker guards the batched enrichment calls: when the auth or
	// files service is down, listings fail fast instead of holding every
	// request for the full reply ceiling.
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gateway-enrichment",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("enrichment breaker state changed", "from", from.String(), "to", to.String())
		},
	})
	return s
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.deadline())

	api := router.Group("/api")
	{
		api.POST("/auth/register", s.register)
		api.POST("/auth/login", s.login)

		api.GET("/news", s.listNews)
		api.GET("/news/search", s.searchNews)
		api.GET("/news/:id", s.getNews)
		api.GET("/news/:id/comments", s.listNewsComments)
		api.GET("/comments", s.listComments)
		api.GET("/comments/:id", s.getComment)
		api.GET("/users/:id", s.getUser)

		authed := api.Group("", s.authRequired())
		{
			authed.GET("/users", s.listUsers)
			authed.GET("/users/search", s.searchUsers)
			authed.POST("/users/:id/subscribe", s.subscribe)

			authed.GET("/profile", s.profile)
			authed.PATCH("/profile", s.updateProfile)
			authed.PATCH("/profile/avatar", s.updateAvatar)
			authed.DELETE("/profile", s.deleteProfile)

			authed.GET("/news/subscriptions", s.subscriptionNews)
			authed.POST("/news", s.createNews)
			authed.PATCH("/news/:id", s.updateNews)
			authed.DELETE("/news/:id", s.deleteNews)

			authed.POST("/comments", s.createComment)
			authed.PATCH("/comments/:id", s.updateComment)
			authed.DELETE("/comments/:id", s.deleteComment)

			admin := authed.Group("", s.adminRequired())
			{
				admin.GET("/logs", s.listLogs)
				admin.DELETE("/logs", s.clearLogs)
			}
		}
	}
	return router
}

// deadline bounds every request with the gateway ceiling so a stuck
// downstream cannot hold the connection open indefinitely.
func (s *Server) deadline() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
