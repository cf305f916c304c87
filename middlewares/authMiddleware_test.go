package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"github.com/gin-gonic/gin"
)

type fakeIdentities struct {
	sessions map[string]string
	users    []*models.User
	err      error
}

func (f fakeIdentities) SessionEmail(token string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	email, ok := f.sessions[token]
	return email, ok, nil
}

func (f fakeIdentities) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, utils.ErrorRecordNotFound
}

func (f fakeIdentities) TenantUser(ctx context.Context, tenantId string, id int) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id && u.TenantId == tenantId {
			return u, nil
		}
	}
	return nil, utils.ErrorRecordNotFound
}

func useIdentities(t *testing.T, store identityStore) {
	t.Helper()
	prev := identities
	identities = store
	t.Cleanup(func() { identities = prev })
}

func testUsers() []*models.User {
	return []*models.User{
		{ID: 1, TenantId: "t1", Name: "Ana", Email: "ana@t1.test", Role: models.UserRoleAdmin, IsActive: utils.NewTrue()},
		{ID: 2, TenantId: "t1", Name: "Bia", Email: "bia@t1.test", Role: models.UserRoleEmployee, IsActive: utils.NewFalse()},
		{ID: 3, TenantId: "", Name: "Orphan", Email: "orphan@test", Role: models.UserRoleEmployee, IsActive: utils.NewTrue()},
	}
}

func TestResolveWebSession(t *testing.T) {
	useIdentities(t, fakeIdentities{
		sessions: map[string]string{"tok-ana": "ana@t1.test", "tok-bia": "bia@t1.test", "tok-orphan": "orphan@test", "tok-ghost": "ghost@test"},
		users:    testUsers(),
	})

	auth, err := ResolveWebSession(context.Background(), "tok-ana")
	if err != nil {
		t.Fatalf("ResolveWebSession: %v", err)
	}
	if auth.UserId != 1 || auth.TenantId != "t1" || auth.Role != "ADMIN" || auth.Email != "ana@t1.test" {
		t.Fatalf("auth = %+v", auth)
	}

	for _, token := range []string{"", "unknown", "tok-bia", "tok-orphan", "tok-ghost"} {
		if _, err := ResolveWebSession(context.Background(), token); !errors.Is(err, utils.ErrUnauthorized) {
			t.Fatalf("token %q: err = %v, want ErrUnauthorized", token, err)
		}
	}
}

func TestResolveWebSessionStoreFailure(t *testing.T) {
	down := errors.New("redis down")
	useIdentities(t, fakeIdentities{err: down})
	if _, err := ResolveWebSession(context.Background(), "tok"); !errors.Is(err, down) {
		t.Fatalf("err = %v, want the store error", err)
	}
}

func TestResolveMobileAuth(t *testing.T) {
	useIdentities(t, fakeIdentities{users: testUsers()})
	token, err := utils.JwtGenerate(1, "t1", "ana@t1.test", "ADMIN")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	inactive, _ := utils.JwtGenerate(2, "t1", "bia@t1.test", "FUNCIONARIO")
	wrongTenant, _ := utils.JwtGenerate(1, "t2", "ana@t1.test", "ADMIN")

	auth, err := ResolveMobileAuth(context.Background(), "Bearer "+token, "t1")
	if err != nil || auth.UserId != 1 || auth.TenantId != "t1" {
		t.Fatalf("ResolveMobileAuth = %+v, %v", auth, err)
	}
	if _, err := ResolveMobileAuth(context.Background(), "Bearer "+token, ""); err != nil {
		t.Fatalf("tenant header is optional: %v", err)
	}

	cases := []struct {
		name   string
		header string
		tenant string
	}{
		{"no bearer prefix", token, ""},
		{"garbage token", "Bearer not-a-jwt", ""},
		{"tenant header mismatch", "Bearer " + token, "t2"},
		{"inactive user", "Bearer " + inactive, ""},
		{"user outside claimed tenant", "Bearer " + wrongTenant, ""},
	}
	for _, tc := range cases {
		if _, err := ResolveMobileAuth(context.Background(), tc.header, tc.tenant); !errors.Is(err, utils.ErrUnauthorized) {
			t.Fatalf("%s: err = %v, want ErrUnauthorized", tc.name, err)
		}
	}
}

func TestSessionMiddlewareAndRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	useIdentities(t, fakeIdentities{
		sessions: map[string]string{"tok-ana": "ana@t1.test"},
		users:    testUsers(),
	})

	r := gin.New()
	r.Use(SessionMiddleware())
	r.GET("/users", RequireRole(models.UserRoleAdmin), func(c *gin.Context) {
		auth, _ := AuthFrom(c)
		tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())
		if tenantId != auth.TenantId {
			t.Errorf("request context tenant = %q, want %q", tenantId, auth.TenantId)
		}
		c.Status(http.StatusOK)
	})
	r.GET("/staff", RequireRole(models.UserRoleManager), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		path  string
		token string
		want  int
	}{
		{"/users", "tok-ana", http.StatusOK},
		{"/users", "", http.StatusUnauthorized},
		{"/users", "expired", http.StatusUnauthorized},
		{"/staff", "tok-ana", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("token", tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s with %q: status %d, want %d", tc.path, tc.token, w.Code, tc.want)
		}
	}
}

func TestCorrelationMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationMiddleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen, _ = utils.GetCorrelationIdFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if seen != "abc-123" || w.Header().Get(CorrelationHeader) != "abc-123" {
		t.Fatalf("correlation = %q / %q", seen, w.Header().Get(CorrelationHeader))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get(CorrelationHeader) == "" {
		t.Fatalf("a correlation id must be generated")
	}
}

func TestReadinessGateBlocksUntilConnected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ReadinessGate())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/api/customers", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("/healthz = %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customers", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("/api/customers before connect = %d, want 503", w.Code)
	}
}
