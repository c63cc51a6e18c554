package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCause(t *testing.T) {
	base := stderrors.New(`relation "tasks" does not exist`)

	assert.Equal(t, base, RootCause(base))
	assert.Equal(t, base, RootCause(fmt.Errorf("failed to list tasks: %w", base)))
	assert.Equal(t, base, RootCause(fmt.Errorf("outer: %w", fmt.Errorf("failed to count: %w", base))))
	assert.Nil(t, RootCause(nil))

	joined := stderrors.Join(base, stderrors.New("second"))
	assert.Equal(t, joined, RootCause(fmt.Errorf("wrap: %w", joined)))
}

func TestUpstreamError_SendsUnderlyingMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	UpstreamError(c, fmt.Errorf("failed to list tasks: %w", stderrors.New("connection refused")))

	require.Equal(t, http.StatusBadGateway, w.Code)
	var body APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeUpstreamError, body.Code)
	assert.Equal(t, "connection refused", body.Message)
}
