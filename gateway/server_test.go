package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/internal/token"
	"github.com/newsbus/newsbus/messaging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doRequest(t *testing.T, s *Server, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func memberToken(t *testing.T) string {
	t.Helper()
	signed, err := token.Sign("test-secret", 1, "alice@example.com", contracts.RoleMember, time.Hour)
	require.NoError(t, err)
	return signed
}

func adminToken(t *testing.T) string {
	t.Helper()
	signed, err := token.Sign("test-secret", 2, "root@example.com", contracts.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return signed
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterRoute(t *testing.T) {
	t.Run("forwards to auth and returns 201", func(t *testing.T) {
		auth := newFakeSender()
		auth.responses[contracts.PatternRegister] = contracts.AuthResponse{
			User:        contracts.User{ID: 1, Username: "alice", Role: contracts.RoleMember},
			AccessToken: "tok",
		}
		s := newTestServer(Clients{Auth: auth, Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodPost, "/api/auth/register",
			`{"username":"alice","email":"a@b.c","password":"x"}`, "")

		assert.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, auth.calls, 1)
		assert.Equal(t, contracts.PatternRegister, auth.calls[0].pattern)
	})

	t.Run("remote conflict keeps its status and name", func(t *testing.T) {
		auth := newFakeSender()
		auth.errs[contracts.PatternRegister] = &contracts.RemoteError{
			Status: http.StatusConflict, Name: "ConflictError", Message: "user with this email or username already exists",
		}
		s := newTestServer(Clients{Auth: auth, Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodPost, "/api/auth/register",
			`{"username":"alice","email":"a@b.c","password":"x"}`, "")

		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, "/api/auth/register", body.Path)
		assert.Equal(t, "ConflictError", body.Error.Name)
		assert.Equal(t, http.StatusConflict, body.Error.Status)
	})

	t.Run("malformed body is a validation error", func(t *testing.T) {
		s := newTestServer(Clients{Auth: newFakeSender(), Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodPost, "/api/auth/register", "{not json", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ValidationError", decodeErrorBody(t, rec).Error.Name)
	})
}

func TestTimeoutBoundary(t *testing.T) {
	t.Run("downstream timeout maps to 408 and is reported", func(t *testing.T) {
		news := newFakeSender()
		news.errs[contracts.PatternFindAllNews] = &messaging.TimeoutError{
			Destination: "news", Pattern: contracts.PatternFindAllNews, Timeout: 10 * time.Second,
		}
		logs := newFakeSender()
		s := newTestServer(Clients{News: news, Logs: logs})

		rec := doRequest(t, s, http.MethodGet, "/api/news", "", "")

		assert.Equal(t, http.StatusRequestTimeout, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, "TimeoutError", body.Error.Name)
		assert.Equal(t, "/api/news", body.Path)
		assert.False(t, body.Timestamp.IsZero())

		require.Len(t, logs.emits, 1)
		record := logs.emits[0].payload.(contracts.LogRecord)
		assert.Equal(t, contracts.LogError, record.Type)
		assert.Equal(t, contracts.ServiceGateway, record.Microservice)
		assert.Contains(t, record.AdditionalInfo, "/api/news")
	})

	t.Run("unexpected failure maps to 500 without leaking detail", func(t *testing.T) {
		news := newFakeSender()
		news.errs[contracts.PatternFindAllNews] = assert.AnError
		s := newTestServer(Clients{News: news, Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodGet, "/api/news", "", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, "InternalError", body.Error.Name)
		assert.Equal(t, "internal error", body.Error.Message)
		assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing token is unauthorized", func(t *testing.T) {
		s := newTestServer(Clients{Auth: newFakeSender(), Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodGet, "/api/profile", "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		s := newTestServer(Clients{Auth: newFakeSender(), Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodGet, "/api/profile", "", "garbage")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token reaches the handler with its identity", func(t *testing.T) {
		auth := newFakeSender()
		auth.responses[contracts.PatternGetUserProfile] = contracts.UserProfile{
			User: contracts.User{ID: 1, Username: "alice"},
		}
		s := newTestServer(Clients{Auth: auth, Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodGet, "/api/profile", "", memberToken(t))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, auth.calls, 1)
		payload := auth.calls[0].payload.(gin.H)
		assert.Equal(t, int64(1), payload["id"])
	})

	t.Run("member cannot reach the admin surface", func(t *testing.T) {
		s := newTestServer(Clients{Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodGet, "/api/logs", "", memberToken(t))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin can list logs", func(t *testing.T) {
		logs := newFakeSender()
		logs.responses[contracts.PatternGetAllLogs] = []contracts.LogRecord{
			{Type: contracts.LogAction, Microservice: contracts.ServiceAuth, Message: "m"},
		}
		s := newTestServer(Clients{Logs: logs})

		rec := doRequest(t, s, http.MethodGet, "/api/logs?type=action", "", adminToken(t))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, logs.calls, 1)
		req := logs.calls[0].payload.(contracts.GetAllLogsRequest)
		assert.Equal(t, contracts.LogAction, req.Type)
	})
}

func TestCreateNewsRoute(t *testing.T) {
	t.Run("publishes an event and answers accepted", func(t *testing.T) {
		news := newFakeSender()
		s := newTestServer(Clients{News: news, Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodPost, "/api/news",
			`{"title":"t","body":"b","files":["a.png"]}`, memberToken(t))

		assert.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, news.emits, 1)
		req := news.emits[0].payload.(contracts.CreateNewsRequest)
		assert.Equal(t, int64(1), req.AuthorID)
		assert.Equal(t, []string{"a.png"}, req.Files)
		assert.Empty(t, news.calls)
	})

	t.Run("missing title is refused before publishing", func(t *testing.T) {
		news := newFakeSender()
		s := newTestServer(Clients{News: news, Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodPost, "/api/news", `{"body":"b"}`, memberToken(t))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, news.emits)
	})
}

func TestSubscriptionNewsRoute(t *testing.T) {
	t.Run("empty subscription list short-circuits", func(t *testing.T) {
		auth := newFakeSender()
		auth.responses[contracts.PatternUserSubscriptions] = []int64{}
		news := newFakeSender()
		s := newTestServer(Clients{Auth: auth, News: news, Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodGet, "/api/news/subscriptions", "", memberToken(t))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
		assert.Empty(t, news.calls)
	})

	t.Run("lists and enriches subscription news", func(t *testing.T) {
		auth := newFakeSender()
		auth.responses[contracts.PatternUserSubscriptions] = []int64{7}
		auth.responses[contracts.PatternGetUsersByIDs] = []contracts.User{{ID: 7, Username: "bob"}}
		news := newFakeSender()
		news.responses[contracts.PatternUserSubscriptionsNews] = []contracts.News{{ID: 10, AuthorID: 7}}
		s := newTestServer(Clients{Auth: auth, News: news, Files: newFakeSender(), Logs: newFakeSender()})

		rec := doRequest(t, s, http.MethodGet, "/api/news/subscriptions", "", memberToken(t))

		assert.Equal(t, http.StatusOK, rec.Code)
		var out []contracts.NewsWithAuthor
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		require.NotNil(t, out[0].Author)
		assert.Equal(t, "bob", out[0].Author.Username)
	})
}
