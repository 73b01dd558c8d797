package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type registerRequest struct {
	TesterID string `validate:"omitempty,tester_id"`
	Email    string `validate:"required,email"`
}

func TestValidator_TesterID(t *testing.T) {
	v := New()

	assert.NoError(t, v.Var("BT001", "tester_id"))
	assert.NoError(t, v.Var("BT1000", "tester_id"))
	assert.Error(t, v.Var("BT01", "tester_id"))
	assert.Error(t, v.Var("bt001", "tester_id"))
	assert.Error(t, v.Var("../BT001", "tester_id"))
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(registerRequest{Email: "anna@example.com"}))
	assert.NoError(t, v.Validate(registerRequest{TesterID: "BT002", Email: "anna@example.com"}))
	assert.Error(t, v.Validate(registerRequest{TesterID: "X1", Email: "anna@example.com"}))
	assert.Error(t, v.Validate(registerRequest{Email: "not-an-email"}))
}
