package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", InvalidInput("bad"), http.StatusBadRequest},
		{"shape", InvalidShape("bad shape"), http.StatusUnprocessableEntity},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"forbidden", Forbidden("no"), http.StatusForbidden},
		{"unauthorized", NewError(ErrUnauthorized, "who"), http.StatusUnauthorized},
		{"wrapped sentinel", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromError(tt.err))
		})
	}
}

func TestClientMessage_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "Lỗi máy chủ", ClientMessage(errors.New("dial tcp: connection refused")))
	assert.Equal(t, "không tồn tại", ClientMessage(NotFound("không tồn tại")))
}

func TestV2ErrorFromErr(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	V2ErrorFromErr(c, InvalidShape("DIRECT cần ít nhất 2 userId"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body V2Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "INVALID_CONVERSATION_SHAPE", body.Error.Code)
	assert.Equal(t, "DIRECT cần ít nhất 2 userId", body.Error.Message)
}

func TestNewV2Meta(t *testing.T) {
	assert.Equal(t, int64(3), NewV2Meta(2, 10, 25).TotalPages)
	assert.Equal(t, int64(0), NewV2Meta(1, 20, 0).TotalPages)
	assert.Equal(t, int64(1), NewV2Meta(1, 20, 20).TotalPages)
}
