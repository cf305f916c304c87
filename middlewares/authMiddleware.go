package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/despasys/despasys_backend/appctx"
	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/utils"
	"github.com/gin-gonic/gin"
)

const authKey = "auth"

// identityStore is where resolvers look sessions and users up.
type identityStore interface {
	SessionEmail(token string) (string, bool, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	TenantUser(ctx context.Context, tenantId string, id int) (*models.User, error)
}

type modelIdentities struct{}

func (modelIdentities) SessionEmail(token string) (string, bool, error) {
	return models.SessionEmail(token)
}

func (modelIdentities) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return models.GetUserByEmail(ctx, email)
}

func (modelIdentities) TenantUser(ctx context.Context, tenantId string, id int) (*models.User, error) {
	return models.GetTenantUser(ctx, tenantId, id)
}

var identities identityStore = modelIdentities{}

func authOf(user *models.User) (appctx.Auth, error) {
	if user == nil || !user.Active() || user.TenantId == "" {
		return appctx.Auth{}, utils.ErrUnauthorized
	}
	return appctx.Auth{
		UserId:   user.ID,
		TenantId: user.TenantId,
		UserName: user.Name,
		Email:    user.Email,
		Role:     string(user.Role),
	}, nil
}

// ResolveWebSession maps an opaque session token to the user behind it.
func ResolveWebSession(ctx context.Context, token string) (appctx.Auth, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return appctx.Auth{}, utils.ErrUnauthorized
	}
	email, exists, err := identities.SessionEmail(token)
	if err != nil {
		return appctx.Auth{}, err
	}
	if !exists || email == "" {
		return appctx.Auth{}, utils.ErrUnauthorized
	}
	user, err := identities.UserByEmail(ctx, email)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return appctx.Auth{}, utils.ErrUnauthorized
	}
	if err != nil {
		return appctx.Auth{}, err
	}
	return authOf(user)
}

// ResolveMobileAuth validates a bearer JWT. When X-Tenant-Id is sent it must match the token.
func ResolveMobileAuth(ctx context.Context, authorization string, tenantHeader string) (appctx.Auth, error) {
	const bearer = "Bearer "
	if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return appctx.Auth{}, utils.ErrUnauthorized
	}
	claims, err := utils.JwtValidate(strings.TrimSpace(authorization[len(bearer):]))
	if err != nil || claims.ID <= 0 || claims.TenantId == "" {
		return appctx.Auth{}, utils.ErrUnauthorized
	}
	if tenantHeader = strings.TrimSpace(tenantHeader); tenantHeader != "" && tenantHeader != claims.TenantId {
		return appctx.Auth{}, utils.ErrUnauthorized
	}
	user, err := identities.TenantUser(ctx, claims.TenantId, claims.ID)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return appctx.Auth{}, utils.ErrUnauthorized
	}
	if err != nil {
		return appctx.Auth{}, err
	}
	return authOf(user)
}

// SetAuth stores the identity on the gin context and binds it into the request context.
func SetAuth(c *gin.Context, auth appctx.Auth) {
	c.Set(authKey, auth)
	c.Request = c.Request.WithContext(auth.Bind(c.Request.Context()))
}

// AuthFrom returns the identity stored by SessionMiddleware or MobileAuthMiddleware.
func AuthFrom(c *gin.Context) (appctx.Auth, bool) {
	v, ok := c.Get(authKey)
	if !ok {
		return appctx.Auth{}, false
	}
	auth, ok := v.(appctx.Auth)
	return auth, ok && auth.Valid()
}

func abortAuth(c *gin.Context, err error) {
	if errors.Is(err, utils.ErrUnauthorized) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	config.LogError(config.GetLogger(), "Middlewares", "abortAuth", "identity lookup failed", c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication unavailable"})
}

// SessionMiddleware resolves the web "token" header. Requests without one pass
// through unauthenticated; handlers decide whether that is allowed.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		auth, err := ResolveWebSession(c.Request.Context(), token)
		if err != nil {
			abortAuth(c, err)
			return
		}
		SetAuth(c, auth)
		c.Request = c.Request.WithContext(utils.SetTokenInContext(c.Request.Context(), token))
		c.Next()
	}
}

// MobileAuthMiddleware resolves "Authorization: Bearer <jwt>" plus the optional X-Tenant-Id.
func MobileAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := c.Request.Header.Get("Authorization")
		if authorization == "" {
			c.Next()
			return
		}
		auth, err := ResolveMobileAuth(c.Request.Context(), authorization, c.Request.Header.Get("X-Tenant-Id"))
		if err != nil {
			abortAuth(c, err)
			return
		}
		SetAuth(c, auth)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed. It must run after an auth middleware.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := AuthFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, role := range roles {
			if strings.EqualFold(auth.Role, string(role)) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
