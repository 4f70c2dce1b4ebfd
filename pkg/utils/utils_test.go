package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("S3cret!pass", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(&hash, "S3cret!pass"))
	assert.False(t, CheckPassword(&hash, "wrong"))
	assert.False(t, CheckPassword(nil, "S3cret!pass"))
}

func TestHashPassword_DefaultCostWhenOutOfRange(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("S3cret!pass", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultPasswordCost, cost)
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePassword("Passw0rd!"))
	for _, weak := range []string{"short1!", "alllowercase1!", "ALLUPPER1!", "NoDigits!!", "NoSpecial11"} {
		assert.ErrorIs(t, ValidatePassword(weak), ErrWeakPassword, weak)
	}

	atLimit := "Aa1!" + strings.Repeat("x", MaxPasswordBytes-4)
	assert.NoError(t, ValidatePassword(atLimit))
	assert.ErrorIs(t, ValidatePassword(atLimit+"y"), ErrPasswordTooLong)
	assert.ErrorIs(t, ValidatePassword("Aa1!"+strings.Repeat("é", 68)), ErrPasswordTooLong, "limit counts bytes")
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jane@example.com", SanitizeEmail("  <b>Jane@Example.com</b> "))
	assert.Equal(t, "+2348012345678", SanitizePhone(" +234 (801) 234-5678 "))
	assert.Equal(t, "&lt;script&gt;", SanitizeString(" <script> "))
	assert.Nil(t, SanitizeOptional(nil, SanitizeString))

	blank := "   "
	assert.Nil(t, SanitizeOptional(&blank, SanitizeString))
	assert.True(t, IsValidEmail("a.b@c.io"))
	assert.False(t, IsValidEmail("not-an-email"))
}

type signupInput struct {
	Email string  `json:"email" validate:"required,email"`
	Role  string  `json:"role" validate:"omitempty,user_role"`
	Phone *string `json:"phoneNumber" validate:"omitempty,phone"`
}

func TestFieldErrors(t *testing.T) {
	t.Parallel()

	phone := "12ab"
	err := ValidationError(&signupInput{Email: "nope", Role: "ADMIN", Phone: &phone})
	require.Error(t, err)

	fields := FieldErrors(err)
	require.Len(t, fields, 3)

	byField := map[string]string{}
	for _, f := range fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "must be a valid email address", byField["email"])
	assert.Equal(t, "must be one of ATTENDEE, HOST", byField["role"])
	assert.Equal(t, "must be a valid phone number", byField["phoneNumber"])

	assert.NoError(t, ValidationError(&signupInput{Email: "ok@example.com", Role: "HOST"}))
}

func TestPagination(t *testing.T) {
	t.Parallel()

	page, limit := NormalizePage(0, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, MaxPageSize, limit)

	page, limit = NormalizePage(3, 0)
	assert.Equal(t, 3, page)
	assert.Equal(t, DefaultPageSize, limit)
	assert.Equal(t, 40, Offset(page, limit))

	p := NewPagination(2, 20, 41)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPagination(1, 20, 0).TotalPages)
}
