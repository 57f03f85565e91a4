package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendita/storefront/internal/queue"
)

func newContactContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/v1/contact", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestContactSubmit(t *testing.T) {
	t.Run("valid submission is published and answers 202", func(t *testing.T) {
		var published queue.ContactMessageEvent
		h := NewContactHandler(func(_ context.Context, ev queue.ContactMessageEvent) error {
			published = ev
			return nil
		})
		c, rec := newContactContext(t, `{"name":"Ana","email":"ANA@Example.com","message":"Where is my order, please?"}`)

		require.NoError(t, h.Submit(c))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "Ana", published.Name)
		assert.Equal(t, "ana@example.com", published.Email, "email is normalized before publishing")
		assert.NotEmpty(t, published.ReceivedAt)
	})

	t.Run("invalid payloads never reach the broker", func(t *testing.T) {
		called := false
		h := NewContactHandler(func(context.Context, queue.ContactMessageEvent) error {
			called = true
			return nil
		})
		for _, body := range []string{
			`{}`,
			`{"name":"Ana","email":"not-an-email","message":"long enough message"}`,
			`{"name":"Ana","email":"ana@example.com","message":"short"}`,
		} {
			c, rec := newContactContext(t, body)
			require.NoError(t, h.Submit(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
		}
		assert.False(t, called)
	})

	t.Run("broker failure answers 503", func(t *testing.T) {
		h := NewContactHandler(func(context.Context, queue.ContactMessageEvent) error {
			return errors.New("dial tcp: connection refused")
		})
		c, rec := newContactContext(t, `{"name":"Ana","email":"ana@example.com","message":"Where is my order, please?"}`)

		require.NoError(t, h.Submit(c))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
