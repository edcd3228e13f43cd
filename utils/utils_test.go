package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGenerateAndParseToken(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, err := GenerateToken(7, "alice", "admin", 3)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, uint(3), claims.RestaurantID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiry(), 5*time.Second)
}

func TestParseTokenRejectsTampered(t *testing.T) {
	InitJWT("test-secret", time.Hour)
	token, err := GenerateToken(1, "bob", "customer", 1)
	require.NoError(t, err)

	_, err = ParseToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	InitJWT("another-secret", time.Hour)
	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMemoryBlacklist(t *testing.T) {
	ctx := context.Background()
	bl := NewMemoryBlacklist()

	require.NoError(t, bl.Add(ctx, "live", time.Now().Add(time.Minute)))
	require.NoError(t, bl.Add(ctx, "stale", time.Now().Add(-time.Minute)))

	found, err := bl.Contains(ctx, "live")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = bl.Contains(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, found)

	found, err = bl.Contains(ctx, "never-added")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBlacklistKeyHidesToken(t *testing.T) {
	key := blacklistKey("secret-token")
	assert.NotContains(t, key, "secret-token")
	assert.Equal(t, key, blacklistKey("secret-token"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ValidationError("bad %s", "input"), http.StatusBadRequest},
		{UnauthorizedError("no"), http.StatusUnauthorized},
		{ForbiddenError("no"), http.StatusForbidden},
		{NotFoundError("order %d", 1), http.StatusNotFound},
		{ConflictError("dup"), http.StatusConflict},
		{InternalError("boom", errors.New("db down")), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ConflictError("dup")), http.StatusConflict},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestNotFoundOr(t *testing.T) {
	err := NotFoundOr(gorm.ErrRecordNotFound, "menu")
	assert.Equal(t, http.StatusNotFound, StatusFor(err))
	assert.Equal(t, "menu not found", err.Error())

	err = NotFoundOr(errors.New("connection reset"), "menu")
	assert.Equal(t, http.StatusInternalServerError, StatusFor(err))
}

func TestRespondAppErrorHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	RespondAppError(c, errors.New("dsn=root:password@tcp"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestFormatCurrency(t *testing.T) {
	tests := map[string]string{
		"0":         "0.00",
		"160":       "160.00",
		"1234.5":    "1,234.50",
		"1234567.8": "1,234,567.80",
		"-1000":     "-1,000.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrency(decimal.RequireFromString(in)), in)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, "10.01", Round2(decimal.RequireFromString("10.005")).StringFixed(2))
	assert.Equal(t, "10.00", Round2(decimal.RequireFromString("10.004")).StringFixed(2))
}
