package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"newsdesk/internal/config"
	"newsdesk/internal/db"
	"newsdesk/internal/engine"
	"newsdesk/internal/migrate"
)

const testJWTSecret = "test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn)
	ctx := context.Background()
	seed := []struct{ id, roleType, roleName string }{
		{"rep-a", "reporter", "Reporter"},
		{"rep-b", "reporter", "Reporter"},
		{"rev-1", "reviewer", "Reviewer"},
		{"ed-1", "editor", "Editor"},
		{"adm-1", "admin", "Administrator"},
	}
	for _, u := range seed {
		if _, err := e.SetUserRole(ctx, u.id, u.roleType, u.roleName); err != nil {
			t.Fatalf("seed user %s: %v", u.id, err)
		}
	}
	handler, err := New(Config{
		Engine:   e,
		App:      config.Default("newsdesk-test"),
		BasePath: "/api/v1",
		Auth: AuthConfig{
			JWTSecret:              testJWTSecret,
			AllowLegacyActorHeader: true,
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func actorHeader(id string) map[string]string {
	return map[string]string{"X-Actor-Id": id}
}

func signToken(t *testing.T, sub, role, roleName string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":       sub,
		"role":      role,
		"role_name": roleName,
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestArticleLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/api/v1"

	res, data := doJSON(t, client, http.MethodPost, base+"/articles", map[string]any{
		"title": "Council approves budget",
	}, actorHeader("rep-a"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var created ArticleResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal article: %v", err)
	}
	if created.WorkflowStatus != "draft" || created.CreatorID != "rep-a" {
		t.Fatalf("created article: %+v", created)
	}

	// Reporter cannot publish; the denial reason drives the status code.
	res, data = doJSON(t, client, http.MethodPost, base+"/articles/"+created.ID+"/publish", nil, actorHeader("rep-a"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("reporter publish status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/articles/"+created.ID+"/submit", nil, actorHeader("rep-a"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("submit status %d: %s", res.StatusCode, string(data))
	}

	// Illegal transition maps to 422.
	res, data = doJSON(t, client, http.MethodPatch, base+"/articles/"+created.ID, map[string]any{
		"status": "published",
	}, actorHeader("rep-a"))
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("reporter review -> published status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/articles/"+created.ID+"/approve", map[string]any{
		"notes": "solid reporting",
	}, actorHeader("rev-1"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve status %d: %s", res.StatusCode, string(data))
	}
	var approved ArticleResponse
	if err := json.Unmarshal(data, &approved); err != nil {
		t.Fatalf("unmarshal approved: %v", err)
	}
	if approved.WorkflowStatus != "review" || approved.ReviewedBy == nil {
		t.Fatalf("approve changed state unexpectedly: %+v", approved)
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/articles/"+created.ID+"/publish", nil, actorHeader("ed-1"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("publish status %d: %s", res.StatusCode, string(data))
	}
	var published ArticleResponse
	if err := json.Unmarshal(data, &published); err != nil {
		t.Fatalf("unmarshal published: %v", err)
	}
	if published.WorkflowStatus != "published" || published.PublishedAt == nil {
		t.Fatalf("publish result: %+v", published)
	}
}

func TestOwnershipEnforcedOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/api/v1"

	res, data := doJSON(t, client, http.MethodPost, base+"/articles", map[string]any{
		"title": "Scoop",
	}, actorHeader("rep-a"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var created ArticleResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal article: %v", err)
	}

	res, data = doJSON(t, client, http.MethodPatch, base+"/articles/"+created.ID, map[string]any{
		"title": "Hijacked scoop",
	}, actorHeader("rep-b"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-reporter edit status %d: %s", res.StatusCode, string(data))
	}
}

func TestJWTAuthentication(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/api/v1"

	token := signToken(t, "jwt-editor", "editor", "Editor")
	headers := map[string]string{"Authorization": "Bearer " + token}

	res, data := doJSON(t, client, http.MethodPost, base+"/articles", map[string]any{
		"title":  "From a token",
		"status": "published",
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("jwt create status %d: %s", res.StatusCode, string(data))
	}
	var created ArticleResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal article: %v", err)
	}
	if created.WorkflowStatus != "published" || created.PublishedAt == nil {
		t.Fatalf("editor direct publish: %+v", created)
	}

	res, data = doJSON(t, client, http.MethodGet, base+"/me", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me MeResponse
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.ActorID != "jwt-editor" || me.RoleType != "editor" || me.Trusted {
		t.Fatalf("me: %+v", me)
	}

	// Bad signature is rejected.
	res, _ = doJSON(t, client, http.MethodGet, base+"/me", nil, map[string]string{
		"Authorization": "Bearer " + token + "x",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tampered token status %d", res.StatusCode)
	}
}

func TestAPIKeyActsAsServiceCredential(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/api/v1"

	res, data := doJSON(t, client, http.MethodPost, base+"/apikeys", map[string]any{
		"actor_id": "render-bot",
		"name":     "renderer",
	}, actorHeader("adm-1"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create key status %d: %s", res.StatusCode, string(data))
	}
	var key APIKeyResponse
	if err := json.Unmarshal(data, &key); err != nil {
		t.Fatalf("unmarshal key: %v", err)
	}
	if key.Key == "" {
		t.Fatalf("raw key must be returned on creation")
	}

	res, data = doJSON(t, client, http.MethodPost, base+"/articles", map[string]any{
		"title": "Reporter draft",
	}, actorHeader("rep-a"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create article status %d: %s", res.StatusCode, string(data))
	}
	var created ArticleResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal article: %v", err)
	}

	// The service key bypasses ownership and workflow rules entirely.
	keyHeader := map[string]string{"X-Api-Key": key.Key}
	res, data = doJSON(t, client, http.MethodPatch, base+"/articles/"+created.ID, map[string]any{
		"status": "published",
	}, keyHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("service publish status %d: %s", res.StatusCode, string(data))
	}
	var published ArticleResponse
	if err := json.Unmarshal(data, &published); err != nil {
		t.Fatalf("unmarshal published: %v", err)
	}
	if published.WorkflowStatus != "published" {
		t.Fatalf("service publish: %+v", published)
	}

	res, data = doJSON(t, client, http.MethodGet, base+"/me", nil, keyHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me MeResponse
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if !me.Trusted || me.Source != "api_key" {
		t.Fatalf("me: %+v", me)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/api/v1"

	res, _ := doJSON(t, client, http.MethodGet, base+"/articles", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no credentials status %d", res.StatusCode)
	}

	// Health stays open.
	res, _ = doJSON(t, client, http.MethodGet, base+"/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}
}

func TestRoleAdministrationRequiresAdmin(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/api/v1"

	res, data := doJSON(t, client, http.MethodPut, base+"/users/new-hire/role", map[string]any{
		"type": "reporter",
		"name": "Reporter",
	}, actorHeader("rep-a"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("reporter set role status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPut, base+"/users/new-hire/role", map[string]any{
		"type": "reporter",
		"name": "Reporter",
	}, actorHeader("adm-1"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("admin set role status %d: %s", res.StatusCode, string(data))
	}
	var u UserResponse
	if err := json.Unmarshal(data, &u); err != nil {
		t.Fatalf("unmarshal user: %v", err)
	}
	if u.RoleType != "reporter" {
		t.Fatalf("assigned role: %+v", u)
	}

	// A bound display name resolves the type on its own.
	res, data = doJSON(t, client, http.MethodPut, base+"/users/stringer/role", map[string]any{
		"name": "Reviewer",
	}, actorHeader("adm-1"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set role by name status %d: %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &u); err != nil {
		t.Fatalf("unmarshal user: %v", err)
	}
	if u.RoleType != "reviewer" {
		t.Fatalf("resolved role: %+v", u)
	}

	// A name bound to a different type is rejected.
	res, data = doJSON(t, client, http.MethodPut, base+"/users/stringer/role", map[string]any{
		"type": "reporter",
		"name": "Reviewer",
	}, actorHeader("adm-1"))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("conflicting binding status %d: %s", res.StatusCode, string(data))
	}
}

func TestAuditLogVisibleToAdmin(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/api/v1"

	res, data := doJSON(t, client, http.MethodPost, base+"/articles", map[string]any{
		"title": "Logged",
	}, actorHeader("rep-a"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, base+"/events", nil, actorHeader("rep-a"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("reporter events status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, base+"/events", nil, actorHeader("adm-1"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("admin events status %d: %s", res.StatusCode, string(data))
	}
	var events []EventResponse
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("expected audit events")
	}
	var sawAllow bool
	for _, evt := range events {
		if evt.Type == "authz.allow" {
			sawAllow = true
		}
	}
	if !sawAllow {
		t.Fatalf("expected an authz.allow event in %d entries", len(events))
	}
}
