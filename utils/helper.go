package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/despasys/despasys_backend/config"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "BR"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizePhone validates a Brazilian phone number and returns it in E.164 form.
func NormalizePhone(phoneNumber string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, CountryCode)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

// FirstValidationError converts binding errors into a single field-level ValidationError.
func FirstValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		if ve.Tag() == "required" {
			return RequiredField(LowercaseFirst(ve.Field()))
		}
		return NewValidationError(LowercaseFirst(ve.Field()), "invalid value ("+ve.Tag()+")")
	}
	return NewValidationError("", "invalid request body")
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

func LowercaseFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	// accept "1.234,56" as well as "1234.56"
	if strings.Contains(value, ",") {
		value = strings.ReplaceAll(value, ".", "")
		value = strings.ReplaceAll(value, ",", ".")
	}
	return decimal.NewFromString(value)
}

func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidCPF checks the two verifier digits of an 11-digit CPF.
func IsValidCPF(cpf string) bool {
	cpf = OnlyDigits(cpf)
	if len(cpf) != 11 || allSameDigit(cpf) {
		return false
	}
	return cpfDigit(cpf[:9], 10) == int(cpf[9]-'0') && cpfDigit(cpf[:10], 11) == int(cpf[10]-'0')
}

func cpfDigit(base string, weight int) int {
	sum := 0
	for _, r := range base {
		sum += int(r-'0') * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

// IsValidCNPJ checks the two verifier digits of a 14-digit CNPJ.
func IsValidCNPJ(cnpj string) bool {
	cnpj = OnlyDigits(cnpj)
	if len(cnpj) != 14 || allSameDigit(cnpj) {
		return false
	}
	first := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	second := append([]int{6}, first...)
	return cnpjDigit(cnpj[:12], first) == int(cnpj[12]-'0') && cnpjDigit(cnpj[:13], second) == int(cnpj[13]-'0')
}

func cnpjDigit(base string, weights []int) int {
	sum := 0
	for i, r := range base {
		sum += int(r-'0') * weights[i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// TenantLock obtains a short redis lock for one tenant and returns its release func.
// When redis is not connected it returns a no-op release; callers then rely on DB constraints.
func TenantLock(ctx context.Context, tenantId string, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, tenantId)
	lock, err := locker.Obtain(ctx, lockKey, 10*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for tenant", tenantId, err)
		return nil, ErrConflict
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for tenant", tenantId, err)
		return nil, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}
