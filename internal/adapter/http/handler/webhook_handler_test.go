package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestWebhookEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	body := `{"type": "payment", "data": {"id": "999001"}}`

	f.reconciler.EXPECT().Process(gomock.Any(), []byte(body)).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")
}

// The gateway retries on anything but a 2xx, so processing failures still
// acknowledge the delivery.
func TestWebhookEndpointAcksOnFailure(t *testing.T) {
	f := newRouterFixture(t)
	body := `{"type": "payment", "data": {"id": "999001"}}`

	f.reconciler.EXPECT().Process(gomock.Any(), []byte(body)).
		Return(errors.New("gateway unreachable"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookEndpointEmptyBody(t *testing.T) {
	f := newRouterFixture(t)

	f.reconciler.EXPECT().Process(gomock.Any(), []byte{}).
		Return(errors.New("unparseable notification"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(""))
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
