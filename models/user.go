package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleManager  UserRole = "GERENTE"
	UserRoleEmployee UserRole = "FUNCIONARIO"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleAdmin, UserRoleManager, UserRoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"size:36;index;not null" json:"tenant_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;not null;unique" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;not null;default:FUNCIONARIO" json:"role"`
	Phone     string    `gorm:"size:20" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required"`
	Password string   `json:"password" binding:"required,min=6"`
	Role     UserRole `json:"role"`
	Phone    string   `json:"phone"`
}

type LoginInfo struct {
	Token      string   `json:"token"`
	UserId     int      `json:"user_id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	TenantId   string   `json:"tenant_id"`
	TenantName string   `json:"tenant_name"`
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrSessionStoreDown   = errors.New("session store unavailable")
)

/*
caches:
	Token:$token   -> email
	Tokens:$email  -> set of tokens
	User:$email    -> User (without password)
*/

func userCacheKey(email string) string { return "User:" + email }

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey(userCacheKey(user.Email))
}

func (user User) Active() bool {
	return user.IsActive != nil && *user.IsActive
}

// authenticate checks credentials against the database. The cached user has no
// password hash, so login always reads the row.
func authenticate(ctx context.Context, email string, password string) (*User, error) {
	var user User
	email = strings.ToLower(strings.TrimSpace(email))
	err := utils.RetryRead(ctx, func() error {
		return config.GetDB().WithContext(ctx).Where("email = ?", email).Take(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active() {
		return nil, ErrUserDisabled
	}
	if user.TenantId == "" {
		return nil, utils.ErrUnauthorized
	}
	return &user, nil
}

func loginInfo(ctx context.Context, user *User, token string) *LoginInfo {
	info := &LoginInfo{
		Token:    token,
		UserId:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		TenantId: user.TenantId,
	}
	if tenant, err := GetTenant(ctx, user.TenantId); err == nil {
		info.TenantName = tenant.Name
	}
	return info
}

// Login opens a web session: an opaque token stored in redis for TOKEN_HOUR_LIFESPAN.
func Login(ctx context.Context, email string, password string) (*LoginInfo, error) {
	if config.GetRedisDB() == nil {
		return nil, ErrSessionStoreDown
	}
	user, err := authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token := uuid.New().String()
	if err := config.AddRedisSet("Tokens:"+user.Email, token); err != nil {
		return nil, err
	}
	if err := config.SetRedisValue("Token:"+token, user.Email, utils.TokenLifespan()); err != nil {
		return nil, err
	}
	return loginInfo(ctx, user, token), nil
}

// MobileLogin returns a signed bearer token instead of a redis session.
func MobileLogin(ctx context.Context, email string, password string) (*LoginInfo, error) {
	user, err := authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, err := utils.JwtGenerate(user.ID, user.TenantId, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return loginInfo(ctx, user, token), nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, utils.ErrUnauthorized
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return false, err
	}
	email, ok := utils.GetUsernameFromContext(ctx)
	if ok && email != "" {
		if err := config.RemoveRedisSetMember("Tokens:"+email, token); err != nil {
			return false, err
		}
	}
	return true, nil
}

// SessionEmail resolves a web session token. ok is false for unknown or expired tokens.
func SessionEmail(token string) (string, bool, error) {
	return config.GetRedisValue("Token:" + token)
}

// GetUserByEmail reads through the User:<email> cache.
func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject(userCacheKey(email), &user)
	if err != nil {
		config.LogError(config.GetLogger(), "User", "GetUserByEmail", "user cache read failed", email, err)
	}
	if exists {
		return &user, nil
	}
	err = utils.RetryRead(ctx, func() error {
		return config.GetDB().WithContext(ctx).Where("email = ?", email).Take(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(userCacheKey(email), &user, utils.GetCacheLifespan()); err != nil {
		config.LogError(config.GetLogger(), "User", "GetUserByEmail", "user cache write failed", email, err)
	}
	return &user, nil
}

// GetTenantUser loads a user by id inside one tenant.
func GetTenantUser(ctx context.Context, tenantId string, id int) (*User, error) {
	return utils.FetchModel[User](ctx, tenantId, id)
}

func ListUsers(ctx context.Context) ([]*User, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchAllModels[User](ctx, tenantId, "name")
}

// CreateUser adds a user to the caller's tenant.
func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	tenantId, err := utils.RequireTenantId(ctx)
	if err != nil {
		return nil, err
	}
	return createTenantUser(ctx, tenantId, input)
}

func (input *NewUser) validate(ctx context.Context) error {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if strings.TrimSpace(input.Name) == "" {
		return utils.RequiredField("name")
	}
	if !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("email", "invalid email address")
	}
	if input.Role == "" {
		input.Role = UserRoleEmployee
	}
	if !input.Role.IsValid() {
		return utils.NewValidationError("role", "invalid role")
	}
	if len(input.Password) < 6 {
		return utils.NewValidationError("password", "password must have at least 6 characters")
	}
	if input.Phone != "" {
		phone, err := utils.NormalizePhone(input.Phone)
		if err != nil {
			return utils.NewValidationError("phone", "invalid phone number")
		}
		input.Phone = phone
	}
	// emails are unique across tenants
	if err := utils.ValidateUnique[User](ctx, "", "email", input.Email, 0); err != nil {
		return err
	}
	return nil
}

func createTenantUser(ctx context.Context, tenantId string, input *NewUser) (*User, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := User{
		TenantId: tenantId,
		Name:     html.EscapeString(strings.TrimSpace(input.Name)),
		Email:    input.Email,
		Password: hashed,
		Role:     input.Role,
		Phone:    input.Phone,
		IsActive: utils.NewTrue(),
	}
	if err := config.GetDB().WithContext(ctx).Create(&user).Error; err != nil {
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewValidationError("email", "duplicate email")
		}
		return nil, err
	}
	return &user, nil
}

// UpsertAdmin creates or resets the ADMIN user of a tenant. Used by cmd/seed-admin.
func UpsertAdmin(ctx context.Context, tenantId string, input *NewUser) (*User, error) {
	input.Role = UserRoleAdmin
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	db := config.GetDB().WithContext(ctx)

	var existing User
	err := db.Where("email = ?", input.Email).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return createTenantUser(ctx, tenantId, input)
	}
	if err != nil {
		return nil, err
	}
	if existing.TenantId != tenantId {
		return nil, utils.NewValidationError("email", "email already used by another tenant")
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	err = db.Model(&existing).Updates(map[string]interface{}{
		"Name":     input.Name,
		"Password": hashed,
		"Role":     UserRoleAdmin,
		"IsActive": true,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := existing.RemoveInstanceRedis(); err != nil {
		config.LogError(config.GetLogger(), "User", "UpsertAdmin", "cached user not invalidated", existing.Email, err)
	}
	return &existing, nil
}
