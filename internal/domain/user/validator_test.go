package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordValidator_ValidateEmail(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name        string
		email       string
		wantErr     bool
		expectedErr string
	}{
		{
			name:    "valid email",
			email:   "farmer@example.com",
			wantErr: false,
		},
		{
			name:    "valid with plus",
			email:   "farmer+kiambu@example.co.ke",
			wantErr: false,
		},
		{
			name:        "empty",
			email:       "",
			wantErr:     true,
			expectedErr: "email is required",
		},
		{
			name:        "too long",
			email:       strings.Repeat("a", 250) + "@x.io",
			wantErr:     true,
			expectedErr: "email must be at most 254 characters",
		},
		{
			name:        "missing domain",
			email:       "farmer@",
			wantErr:     true,
			expectedErr: "is not a valid address",
		},
		{
			name:        "display name",
			email:       "Farmer <farmer@example.com>",
			wantErr:     true,
			expectedErr: "is not a valid address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPasswordValidator_ValidatePassword(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name        string
		password    string
		wantErr     bool
		expectedErr string
	}{
		{
			name:        "too short",
			password:    "abc123",
			wantErr:     true,
			expectedErr: "password must be at least 8 characters",
		},
		{
			name:        "too long",
			password:    strings.Repeat("a1", 37),
			wantErr:     true,
			expectedErr: "password must be at most 72 bytes",
		},
		{
			name:        "no lowercase",
			password:    "ABC12345",
			wantErr:     true,
			expectedErr: "password must contain at least one lowercase letter",
		},
		{
			name:        "no digit",
			password:    "abcdefgh",
			wantErr:     true,
			expectedErr: "password must contain at least one digit",
		},
		{
			name:     "letters and digits",
			password: "shamba2025",
			wantErr:  false,
		},
		{
			name:     "strong with multiple chars",
			password: "P@ssw0rd123!",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePassword(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPasswordValidator_ValidateRegister(t *testing.T) {
	validator := NewPasswordValidator()

	tests := []struct {
		name           string
		email          string
		password       string
		wantErr        bool
		expectedErrMsg string
	}{
		{
			name:     "valid registration",
			email:    "farmer@example.com",
			password: "shamba2025",
			wantErr:  false,
		},
		{
			name:           "invalid email",
			email:          "farmer",
			password:       "shamba2025",
			wantErr:        true,
			expectedErrMsg: "email validation failed",
		},
		{
			name:           "invalid password",
			email:          "farmer@example.com",
			password:       "abc",
			wantErr:        true,
			expectedErrMsg: "password validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateRegister(tt.email, tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErrMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleFarmer.Valid())
	assert.True(t, RoleStakeholder.Valid())
	assert.False(t, Role("admin").Valid())
}
