package middleware_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/personachat/persona-platform/internal/middleware"
)

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, middleware.ValidateMessageContent("hello"))
	assert.Error(t, middleware.ValidateMessageContent(""))
	assert.Error(t, middleware.ValidateMessageContent(strings.Repeat("a", 100001)))
	assert.Error(t, middleware.ValidateMessageContent("bad \xff utf8"))
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, middleware.ValidateID(uuid.Must(uuid.NewV7()).String()))
	assert.Error(t, middleware.ValidateID("not-a-uuid"))
	assert.Error(t, middleware.ValidateID(""))
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, middleware.ValidateTitle("Budget Chat"))
	assert.NoError(t, middleware.ValidateTitle(""))
	assert.Error(t, middleware.ValidateTitle(strings.Repeat("t", 257)))
}

func TestValidatePersonaName(t *testing.T) {
	assert.NoError(t, middleware.ValidatePersonaName("Alice"))
	assert.Error(t, middleware.ValidatePersonaName(""))
	assert.Error(t, middleware.ValidatePersonaName("user"), `"user" collides with the human sender tag`)
	assert.Error(t, middleware.ValidatePersonaName(strings.Repeat("n", 129)))
}
