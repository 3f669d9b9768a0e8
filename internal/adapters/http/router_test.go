package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/dkeye/Messenger/internal/adapters/http"
	"github.com/dkeye/Messenger/internal/adapters/identity"
	"github.com/dkeye/Messenger/internal/adapters/metrics"
	"github.com/dkeye/Messenger/internal/adapters/store"
	"github.com/dkeye/Messenger/internal/app"
	"github.com/dkeye/Messenger/internal/app/orch"
	"github.com/dkeye/Messenger/internal/config"
	"github.com/dkeye/Messenger/internal/core"
	"github.com/dkeye/Messenger/internal/testhelpers"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := testhelpers.NewDB(t)
	users := store.NewUserRepository(db)
	testhelpers.SeedUsers(t, users, "alice", "bob", "mallory")

	m := metrics.New()
	o := &orch.Orchestrator{
		Users:    users,
		Calls:    store.NewCallRepository(db),
		Signals:  core.NewMemorySignalStore(core.WithMaxCandidates(3)),
		Policy:   app.SimplePolicy{},
		Observer: m,
	}
	cfg := &config.Config{
		Mode:    "test",
		Secret:  "test-secret",
		Session: config.SessionConfig{MaxAge: time.Hour},
	}
	r := api.SetupRouter(cfg, api.Deps{
		Orch:     o,
		Users:    users,
		Messages: store.NewMessageRepository(db),
		Resolver: identity.DirectoryResolver{Users: users},
		Metrics:  m.Handler(),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t    *testing.T
	base string
	hc   *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, hc: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func (c *client) login(name string) *client {
	c.t.Helper()
	status, _ := c.do(http.MethodPost, "/login", map[string]string{"username": name, "password": "secret"})
	require.Equal(c.t, http.StatusOK, status)
	return c
}

func errorType(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	s, _ := e["type"].(string)
	return s
}

func TestCallEndpoints_RequireLogin(t *testing.T) {
	srv := newServer(t)
	anon := newClient(t, srv)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/call/initiate"},
		{http.MethodPost, "/call/accept"},
		{http.MethodPost, "/call/end"},
		{http.MethodGet, "/call/check"},
		{http.MethodPost, "/call/offer"},
		{http.MethodPost, "/call/answer"},
		{http.MethodPost, "/call/ice"},
		{http.MethodGet, "/call/sdp?call_id=x"},
		{http.MethodGet, "/users"},
	} {
		status, body := anon.do(tc.method, tc.path, map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, status, tc.path)
		assert.Equal(t, "unauthorized_error", errorType(body), tc.path)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	status, _ := c.do(http.MethodPost, "/register", map[string]string{
		"username": "carol", "password": "pw", "email": "carol@example.com",
	})
	require.Equal(t, http.StatusCreated, status)

	// registration signs the user in
	status, _ = c.do(http.MethodGet, "/call/check", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := c.do(http.MethodPost, "/register", map[string]string{
		"username": "carol", "password": "pw", "email": "other@example.com",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict_error", errorType(body))

	status, _ = c.do(http.MethodPost, "/register", map[string]string{"username": "dave"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, "/call/check", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodPost, "/login", map[string]string{"username": "carol", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = c.do(http.MethodPost, "/login", map[string]string{"username": "carol", "password": "pw"})
	assert.Equal(t, http.StatusOK, status)
}

func TestCallFlow_AliceCallsBob(t *testing.T) {
	srv := newServer(t)
	alice := newClient(t, srv).login("alice")
	bob := newClient(t, srv).login("bob")

	status, body := alice.do(http.MethodPost, "/call/initiate", map[string]string{"receiver": "bob"})
	require.Equal(t, http.StatusOK, status)
	callID, _ := body["call_id"].(string)
	require.NotEmpty(t, callID)

	status, body = bob.do(http.MethodGet, "/call/check", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["has_call"])
	assert.Equal(t, callID, body["call_id"])
	assert.Equal(t, "alice", body["caller"])

	status, body = alice.do(http.MethodGet, "/call/check", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["has_call"])

	offer := map[string]any{"type": "offer", "sdp": "v=0"}
	status, _ = alice.do(http.MethodPost, "/call/offer", map[string]any{"call_id": callID, "offer": offer})
	require.Equal(t, http.StatusOK, status)

	status, body = bob.do(http.MethodPost, "/call/accept", map[string]string{"call_id": callID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["caller"])

	status, body = alice.do(http.MethodGet, "/call/check?id="+callID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "accepted", body["status"])

	status, body = bob.do(http.MethodGet, "/call/sdp?call_id="+callID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, offer, body["offer"])
	assert.NotContains(t, body, "answer")
	assert.Equal(t, []any{}, body["ice_candidates"])

	answer := map[string]any{"type": "answer", "sdp": "v=0"}
	status, _ = bob.do(http.MethodPost, "/call/answer", map[string]any{"call_id": callID, "answer": answer})
	require.Equal(t, http.StatusOK, status)
	for _, cand := range []string{"A", "B"} {
		status, _ = alice.do(http.MethodPost, "/call/ice", map[string]any{
			"call_id": callID, "candidate": map[string]string{"candidate": cand},
		})
		require.Equal(t, http.StatusOK, status)
	}

	status, body = alice.do(http.MethodGet, "/call/sdp?call_id="+callID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, answer, body["answer"])
	assert.Equal(t, []any{
		map[string]any{"candidate": "A"},
		map[string]any{"candidate": "B"},
	}, body["ice_candidates"])

	status, _ = bob.do(http.MethodPost, "/call/end", map[string]string{"call_id": callID})
	require.Equal(t, http.StatusOK, status)
	status, _ = alice.do(http.MethodPost, "/call/end", map[string]string{"call_id": callID})
	assert.Equal(t, http.StatusOK, status, "end is idempotent")

	status, body = alice.do(http.MethodGet, "/call/check?id="+callID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ended", body["status"])

	status, body = alice.do(http.MethodGet, "/call/sdp?call_id="+callID, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_call_error", errorType(body))
}

func TestCallFlow_ThirdPartyIsRejected(t *testing.T) {
	srv := newServer(t)
	alice := newClient(t, srv).login("alice")
	bob := newClient(t, srv).login("bob")
	mallory := newClient(t, srv).login("mallory")

	_, body := alice.do(http.MethodPost, "/call/initiate", map[string]string{"receiver": "bob"})
	callID, _ := body["call_id"].(string)
	require.NotEmpty(t, callID)

	status, body := mallory.do(http.MethodPost, "/call/accept", map[string]string{"call_id": callID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "forbidden_error", errorType(body))

	status, _ = mallory.do(http.MethodPost, "/call/offer", map[string]any{"call_id": callID, "offer": "x"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = mallory.do(http.MethodGet, "/call/sdp?call_id="+callID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = mallory.do(http.MethodGet, "/call/check?id="+callID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = mallory.do(http.MethodPost, "/call/end", map[string]string{"call_id": callID})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = bob.do(http.MethodGet, "/call/check?id="+callID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pending", body["status"])
}

func TestInitiate_Errors(t *testing.T) {
	srv := newServer(t)
	alice := newClient(t, srv).login("alice")

	status, _ := alice.do(http.MethodPost, "/call/initiate", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = alice.do(http.MethodPost, "/call/initiate", map[string]string{"receiver": "alice"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := alice.do(http.MethodPost, "/call/initiate", map[string]string{"receiver": "nobody"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found_error", errorType(body))

	status, _ = alice.do(http.MethodPost, "/call/accept", map[string]string{"call_id": "unknown"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = alice.do(http.MethodPost, "/call/accept", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAppendCandidate_LimitIs429(t *testing.T) {
	srv := newServer(t)
	alice := newClient(t, srv).login("alice")

	_, body := alice.do(http.MethodPost, "/call/initiate", map[string]string{"receiver": "bob"})
	callID, _ := body["call_id"].(string)

	for i := 0; i < 3; i++ {
		status, _ := alice.do(http.MethodPost, "/call/ice", map[string]any{"call_id": callID, "candidate": i})
		require.Equal(t, http.StatusOK, status)
	}
	status, body := alice.do(http.MethodPost, "/call/ice", map[string]any{"call_id": callID, "candidate": 3})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "candidate_limit_error", errorType(body))

	status, _ = alice.do(http.MethodPost, "/call/ice", map[string]any{"call_id": callID, "candidate": nil})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteAccount(t *testing.T) {
	srv := newServer(t)
	alice := newClient(t, srv).login("alice")
	bob := newClient(t, srv).login("bob")

	_, body := alice.do(http.MethodPost, "/call/initiate", map[string]string{"receiver": "bob"})
	callID, _ := body["call_id"].(string)
	require.NotEmpty(t, callID)

	status, _ := newClient(t, srv).do(http.MethodPost, "/deleteacc", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = alice.do(http.MethodPost, "/deleteacc", nil)
	require.Equal(t, http.StatusOK, status)

	// the session is cleared and the account is gone
	status, _ = alice.do(http.MethodGet, "/call/check", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = alice.do(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = bob.do(http.MethodGet, "/call/check", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["has_call"])
	status, body = bob.do(http.MethodGet, "/call/check?id="+callID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ended", body["status"])
}

func TestMessages(t *testing.T) {
	srv := newServer(t)
	alice := newClient(t, srv).login("alice")
	bob := newClient(t, srv).login("bob")

	status, _ := alice.do(http.MethodPost, "/messages", map[string]any{"receiver": "bob", "message": "hi"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = bob.do(http.MethodPost, "/messages", map[string]any{"receiver": "alice", "message": "hey"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = alice.do(http.MethodPost, "/messages", map[string]any{"receiver": "nobody", "message": "hi"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = alice.do(http.MethodPost, "/messages", map[string]any{"receiver": "bob"})
	assert.Equal(t, http.StatusBadRequest, status)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/messages?receiver=bob", nil)
	require.NoError(t, err)
	resp, err := alice.hc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msgs []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0]["message"])
	assert.Equal(t, "alice", msgs[0]["sender"])
	assert.Equal(t, "hey", msgs[1]["message"])
}

func TestListUsers(t *testing.T) {
	srv := newServer(t)
	alice := newClient(t, srv).login("alice")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/users", nil)
	require.NoError(t, err)
	resp, err := alice.hc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Equal(t, []string{"bob", "mallory"}, names)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	status, body := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestID(t *testing.T) {
	srv := newServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(api.RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(api.RequestIDHeader))

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(api.RequestIDHeader))
}
