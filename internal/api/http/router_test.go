package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/support-chat/internal/api/http"
	"github.com/spec-kit/support-chat/internal/api/http/handlers"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/config"
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/observability"
	"github.com/spec-kit/support-chat/internal/persistence"
	"github.com/spec-kit/support-chat/internal/repository/repositorytest"
	"github.com/spec-kit/support-chat/internal/service"
	"github.com/spec-kit/support-chat/internal/worker"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s *stubCompleter) Complete(context.Context, []domain.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestApp(t *testing.T, completer *stubCompleter) *fiber.App {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 20,
			BcryptCost:            bcrypt.MinCost,
		},
	}

	store := repositorytest.NewStore()
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg, store.Users())
	chatService := service.NewChatService(service.ChatDependencies{
		ChatRepo:   store.Chats(),
		TicketRepo: store.Tickets(),
		TxManager:  store.Tx(),
		Completer:  completer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(store.Tickets(), dispatcher, logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("support-chat", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService),
		Chats:          handlers.NewChatsHandler(chatService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

// registerAndLogin creates an account over the API and returns its token.
func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	creds := map[string]string{"username": username, "password": "s3cret"}
	status, _ := doJSON(t, app, nethttp.MethodPost, "/auth", "", creds)
	require.Equal(t, nethttp.StatusCreated, status)

	status, body := doJSON(t, app, nethttp.MethodPost, "/auth/token", "", creds)
	require.Equal(t, nethttp.StatusOK, status)

	token := body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func errorCode(body map[string]any) string {
	errMap, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errMap["code"].(string)
	return code
}

func TestRegister_DuplicateUsernameConflicts(t *testing.T) {
	app := newTestApp(t, &stubCompleter{})

	creds := map[string]string{"username": "alice", "password": "one"}
	status, _ := doJSON(t, app, nethttp.MethodPost, "/auth", "", creds)
	require.Equal(t, nethttp.StatusCreated, status)

	status, body := doJSON(t, app, nethttp.MethodPost, "/auth", "", creds)
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))
}

func TestLogin_UniformUnauthorized(t *testing.T) {
	app := newTestApp(t, &stubCompleter{})
	registerAndLogin(t, app, "alice")

	status, wrongPass := doJSON(t, app, nethttp.MethodPost, "/auth/token", "",
		map[string]string{"username": "alice", "password": "bad"})
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	statusUnknown, unknownUser := doJSON(t, app, nethttp.MethodPost, "/auth/token", "",
		map[string]string{"username": "nobody", "password": "bad"})
	assert.Equal(t, nethttp.StatusUnauthorized, statusUnknown)

	// same code and message either way
	assert.Equal(t, wrongPass["error"], unknownUser["error"])
}

func TestProtectedRoutes_RequireCredential(t *testing.T) {
	app := newTestApp(t, &stubCompleter{})

	for _, path := range []string{"/chats", "/tickets"} {
		status, body := doJSON(t, app, nethttp.MethodGet, path, "", nil)
		assert.Equal(t, nethttp.StatusUnauthorized, status)
		assert.Equal(t, "UNAUTHORIZED", errorCode(body))
	}

	status, _ := doJSON(t, app, nethttp.MethodGet, "/chats", "not-a-token", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
}

func TestChatLifecycle_CreateListGet(t *testing.T) {
	app := newTestApp(t, &stubCompleter{})
	token := registerAndLogin(t, app, "alice")

	status, created := doJSON(t, app, nethttp.MethodPost, "/chats", token, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	require.Equal(t, nethttp.StatusCreated, status)
	chatID := created["data"].(map[string]any)["id"].(string)

	status, listed := doJSON(t, app, nethttp.MethodGet, "/chats", token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	items := listed["data"].([]any)
	require.Len(t, items, 1)
	chat := items[0].(map[string]any)
	assert.Equal(t, chatID, chat["id"])
	assert.Nil(t, chat["ticket"])
	messages := chat["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0].(map[string]any)["content"])

	status, got := doJSON(t, app, nethttp.MethodGet, "/chats/"+chatID, token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, chatID, got["data"].(map[string]any)["id"])
}

func TestGetChat_ForeignLooksMissing(t *testing.T) {
	app := newTestApp(t, &stubCompleter{})
	tokenA := registerAndLogin(t, app, "alice")
	tokenB := registerAndLogin(t, app, "bob")

	status, created := doJSON(t, app, nethttp.MethodPost, "/chats", tokenA, map[string]any{})
	require.Equal(t, nethttp.StatusCreated, status)
	chatID := created["data"].(map[string]any)["id"].(string)

	statusForeign, foreign := doJSON(t, app, nethttp.MethodGet, "/chats/"+chatID, tokenB, nil)
	statusMissing, missing := doJSON(t, app, nethttp.MethodGet, "/chats/does-not-exist", tokenB, nil)

	assert.Equal(t, nethttp.StatusOK, statusForeign)
	assert.Equal(t, statusMissing, statusForeign)
	assert.Nil(t, foreign["data"])
	assert.Equal(t, missing, foreign)
}

func TestMalformedIDs_LookMissing(t *testing.T) {
	// ids that are not valid uuid text never reach a row; the surface must
	// answer exactly as it does for an absent resource, never with a 500
	app := newTestApp(t, &stubCompleter{reply: "hello"})
	token := registerAndLogin(t, app, "alice")

	status, body := doJSON(t, app, nethttp.MethodGet, "/chats/not-a-uuid", token, nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Nil(t, body["data"])

	patch := map[string]any{
		"messages": []map[string]any{{"role": "user", "content": "hi"}},
	}
	status, body = doJSON(t, app, nethttp.MethodPatch, "/chats/not-a-uuid", token, patch)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = doJSON(t, app, nethttp.MethodDelete, "/chats/not-a-uuid", token, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = doJSON(t, app, nethttp.MethodGet, "/tickets/not-a-uuid", token, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = doJSON(t, app, nethttp.MethodPatch, "/tickets/not-a-uuid", token, map[string]any{
		"status": "CLOSED",
	})
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestPatchChat_AppendsAssistantReply(t *testing.T) {
	app := newTestApp(t, &stubCompleter{reply: "hello"})
	token := registerAndLogin(t, app, "alice")

	status, created := doJSON(t, app, nethttp.MethodPost, "/chats", token, map[string]any{})
	require.Equal(t, nethttp.StatusCreated, status)
	chatID := created["data"].(map[string]any)["id"].(string)

	status, patched := doJSON(t, app, nethttp.MethodPatch, "/chats/"+chatID, token, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	require.Equal(t, nethttp.StatusOK, status)

	messages := patched["data"].(map[string]any)["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	second := messages[1].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "hi", first["content"])
	assert.Equal(t, "assistant", second["role"])
	assert.Equal(t, "hello", second["content"])
}

func TestPatchChat_GatewayFailureIsRetryable(t *testing.T) {
	completer := &stubCompleter{err: errors.New("upstream down")}
	app := newTestApp(t, completer)
	token := registerAndLogin(t, app, "alice")

	status, created := doJSON(t, app, nethttp.MethodPost, "/chats", token, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "original"}},
	})
	require.Equal(t, nethttp.StatusCreated, status)
	chatID := created["data"].(map[string]any)["id"].(string)

	status, body := doJSON(t, app, nethttp.MethodPatch, "/chats/"+chatID, token, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "replaced"}},
	})
	assert.Equal(t, nethttp.StatusBadGateway, status)
	assert.Equal(t, "GATEWAY_ERROR", errorCode(body))

	// the persisted history is unchanged
	_, got := doJSON(t, app, nethttp.MethodGet, "/chats/"+chatID, token, nil)
	messages := got["data"].(map[string]any)["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "original", messages[0].(map[string]any)["content"])
}

func TestTicketLifecycle_AttachPatchCascade(t *testing.T) {
	app := newTestApp(t, &stubCompleter{})
	token := registerAndLogin(t, app, "alice")

	status, created := doJSON(t, app, nethttp.MethodPost, "/chats", token, map[string]any{})
	require.Equal(t, nethttp.StatusCreated, status)
	chatID := created["data"].(map[string]any)["id"].(string)

	status, patched := doJSON(t, app, nethttp.MethodPatch, "/chats/"+chatID, token, map[string]any{
		"ticket": map[string]string{"title": "login broken", "description": "cannot sign in"},
	})
	require.Equal(t, nethttp.StatusOK, status)
	ticket := patched["data"].(map[string]any)["ticket"].(map[string]any)
	ticketID := ticket["id"].(string)
	assert.Equal(t, "OPEN", ticket["status"])

	// second attach conflicts and leaves the first ticket untouched
	status, body := doJSON(t, app, nethttp.MethodPatch, "/chats/"+chatID, token, map[string]any{
		"ticket": map[string]string{"title": "other", "description": "other"},
	})
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	// status-only patch via the ticket endpoint
	status, updated := doJSON(t, app, nethttp.MethodPatch, "/tickets/"+ticketID, token, map[string]any{
		"status": "CLOSED",
	})
	require.Equal(t, nethttp.StatusOK, status)
	updatedTicket := updated["data"].(map[string]any)
	assert.Equal(t, "CLOSED", updatedTicket["status"])
	assert.Equal(t, "login broken", updatedTicket["title"])
	assert.Equal(t, "cannot sign in", updatedTicket["description"])

	// deleting the chat removes the ticket too
	status, _ = doJSON(t, app, nethttp.MethodDelete, "/chats/"+chatID, token, nil)
	require.Equal(t, nethttp.StatusNoContent, status)

	status, body = doJSON(t, app, nethttp.MethodGet, "/tickets/"+ticketID, token, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestCrossUserIsolation(t *testing.T) {
	app := newTestApp(t, &stubCompleter{reply: "hello"})
	tokenA := registerAndLogin(t, app, "alice")
	tokenB := registerAndLogin(t, app, "bob")

	status, created := doJSON(t, app, nethttp.MethodPost, "/chats", tokenA, map[string]any{})
	require.Equal(t, nethttp.StatusCreated, status)
	chatID := created["data"].(map[string]any)["id"].(string)

	status, patched := doJSON(t, app, nethttp.MethodPatch, "/chats/"+chatID, tokenA, map[string]any{
		"ticket": map[string]string{"title": "t", "description": "d"},
	})
	require.Equal(t, nethttp.StatusOK, status)
	ticketID := patched["data"].(map[string]any)["ticket"].(map[string]any)["id"].(string)

	// B sees nothing of A's
	_, chats := doJSON(t, app, nethttp.MethodGet, "/chats", tokenB, nil)
	assert.Empty(t, chats["data"])
	_, tickets := doJSON(t, app, nethttp.MethodGet, "/tickets", tokenB, nil)
	assert.Empty(t, tickets["data"])

	// and cannot mutate or delete them
	for _, attempt := range []struct {
		method string
		path   string
		body   any
		want   int
	}{
		{nethttp.MethodPatch, "/chats/" + chatID, map[string]any{"messages": []map[string]string{{"role": "user", "content": "x"}}}, nethttp.StatusNotFound},
		{nethttp.MethodDelete, "/chats/" + chatID, nil, nethttp.StatusNotFound},
		{nethttp.MethodPatch, "/tickets/" + ticketID, map[string]any{"status": "CLOSED"}, nethttp.StatusNotFound},
		{nethttp.MethodGet, "/tickets/" + ticketID, nil, nethttp.StatusNotFound},
	} {
		status, _ := doJSON(t, app, attempt.method, attempt.path, tokenB, attempt.body)
		assert.Equal(t, attempt.want, status, fmt.Sprintf("%s %s", attempt.method, attempt.path))
	}

	// A's ticket is untouched
	status, got := doJSON(t, app, nethttp.MethodGet, "/tickets/"+ticketID, tokenA, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "OPEN", got["data"].(map[string]any)["status"])
}
