package logging

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func restError(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(restError(http.StatusTooManyRequests)))
	assert.True(t, IsTransient(fmt.Errorf("send: %w", restError(http.StatusBadGateway))))
	assert.False(t, IsTransient(restError(http.StatusForbidden)))
	assert.True(t, IsTransient(errors.New("connection reset by peer")))
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, IsRateLimit(restError(http.StatusTooManyRequests)))
	assert.False(t, IsRateLimit(restError(http.StatusNotFound)))
	assert.True(t, IsRateLimit(errors.New("HTTP 429 Too Many Requests")))
	assert.False(t, IsRateLimit(nil))
}
