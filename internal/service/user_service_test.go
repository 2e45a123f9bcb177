package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeepos/internal/models"
)

func TestUserRequestValidation(t *testing.T) {
	req := &UserRequest{
		Username: "",
		FullName: "",
		Email:    "not-an-email",
		Role:     "barista",
		Status:   "on-leave",
	}

	fields := req.validate(true)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "fullName")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "role")
	assert.Contains(t, fields, "status")
}

func TestUserRequestValidationAcceptsValid(t *testing.T) {
	req := &UserRequest{
		Username: "siti",
		FullName: "Siti Rahma",
		Email:    "siti@example.com",
		Phone:    "0812000111",
		Role:     "cashier",
		Status:   "active",
	}

	assert.Nil(t, req.validate(true))
}

func TestUserRequestValidationShortPasswordOnUpdate(t *testing.T) {
	req := &UserRequest{
		Username: "siti",
		FullName: "Siti Rahma",
		Email:    "siti@example.com",
		Role:     "manager",
		Status:   "active",
		Password: "abc",
	}

	fields := req.validate(false)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "password")
}

func TestPasswordHashing(t *testing.T) {
	user := &models.User{}
	require.NoError(t, user.SetPassword("password123"))

	assert.NotEqual(t, "password123", user.Password)
	assert.True(t, user.CheckPassword("password123"))
	assert.False(t, user.CheckPassword("wrong"))
}
