package validate

import (
	"errors"
	"testing"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Name     string `json:"name" label:"Name" validate:"required,min=2"`
	Email    string `json:"email" label:"Email" validate:"required,emailshape"`
	Password string `json:"password" label:"Password" validate:"required,min=6"`
	Confirm  string `json:"confirmPassword" label:"Confirmation" validate:"eqfield=Password"`
	Terms    bool   `json:"terms" label:"Terms and conditions" validate:"required"`
	Code     string `json:"otp,omitempty" label:"Code" validate:"omitempty,otp"`
}

func TestEmail(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"jane@x.com", "a@b.c", "first.last+tag@sub.domain.org"} {
		assert.True(t, Email(s), s)
	}
	for _, s := range []string{"", "jane", "jane@", "jane@x", "@x.com", "ja ne@x.com", "jane@x .com"} {
		assert.False(t, Email(s), s)
	}
}

func TestOTP(t *testing.T) {
	t.Parallel()
	assert.True(t, OTP("123456"))
	for _, s := range []string{"", "12345", "1234567", "12a456", " 123456"} {
		assert.False(t, OTP(s), s)
	}
}

func TestStruct_OK(t *testing.T) {
	t.Parallel()
	f := signupForm{Name: "Jane Doe", Email: "jane@x.com", Password: "secret1", Confirm: "secret1", Terms: true}
	require.NoError(t, Struct(f))
	require.NoError(t, Struct(&f))
}

func TestStruct_Messages(t *testing.T) {
	t.Parallel()
	err := Struct(signupForm{Name: "J", Email: "jane", Password: "12345", Confirm: "x", Code: "12"})
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrValidation))

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Name must be at least 2 characters", fe["name"])
	assert.Equal(t, "Please enter a valid email address", fe["email"])
	assert.Equal(t, "Password must be at least 6 characters", fe["password"])
	assert.Equal(t, "Passwords do not match", fe["confirmPassword"])
	assert.Equal(t, "You must accept the terms and conditions", fe["terms"])
	assert.Equal(t, "Please enter the complete 6-digit code", fe["otp"])
}

func TestStruct_Required(t *testing.T) {
	t.Parallel()
	err := Struct(signupForm{Terms: true})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Name is required", fe["name"])
	assert.Equal(t, "Email is required", fe["email"])
}

func TestFieldErrors(t *testing.T) {
	t.Parallel()
	fe := FieldErrors{}
	require.NoError(t, fe.Err())

	fe.Add("b", "second")
	fe.Add("a", "first")
	fe.Add("a", "ignored")
	require.Equal(t, "a: first; b: second", fe.Error())
	require.ErrorIs(t, fe.Err(), errs.ErrValidation)
}
