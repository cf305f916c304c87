package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyToken         = ContextKey("Token")
	ContextKeyTenantId      = ContextKey("TenantId")
	ContextKeyUsername      = ContextKey("Username")
	ContextKeyUserId        = ContextKey("UserId")
	ContextKeyUserName      = ContextKey("UserName")
	ContextKeyRole          = ContextKey("Role")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// ContextKeyIsAdmin is true for platform-level operations (seeding, ops tools). Used for tenant-scope bypass.
	ContextKeyIsAdmin = ContextKey("IsAdmin")

	// ContextKeySkipTenantScope forces tenant scoping to be disabled for the request.
	// Use sparingly (internal ops only).
	ContextKeySkipTenantScope = ContextKey("SkipTenantScope")
)

// Auth is the resolved identity of a caller. It is produced by the session or
// bearer-token resolver and handed to every handler explicitly.
type Auth struct {
	UserId   int    `json:"user_id"`
	TenantId string `json:"tenant_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Valid reports whether the identity carries both a user and a tenant.
func (a Auth) Valid() bool {
	return a.UserId > 0 && a.TenantId != ""
}

// Bind stamps the identity into ctx for the repository layer and the tenant guard.
func (a Auth) Bind(ctx context.Context) context.Context {
	ctx = Set(ctx, ContextKeyTenantId, a.TenantId)
	ctx = Set(ctx, ContextKeyUserId, a.UserId)
	ctx = Set(ctx, ContextKeyUserName, a.UserName)
	ctx = Set(ctx, ContextKeyUsername, a.Email)
	ctx = Set(ctx, ContextKeyRole, a.Role)
	return ctx
}

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetBool(ctx context.Context, key ContextKey) (bool, bool) {
	v, ok := ctx.Value(key).(bool)
	return v, ok
}

func GetInt(ctx context.Context, key ContextKey) (int, bool) {
	v, ok := ctx.Value(key).(int)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
