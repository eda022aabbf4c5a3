// internal/channels/webhook/handler_test.go
package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "ferreteria-gateway/internal/common/errors"
	"ferreteria-gateway/internal/common/logger"
	"ferreteria-gateway/internal/common/validation"
	"ferreteria-gateway/internal/models"
	"ferreteria-gateway/internal/pipeline"
	"ferreteria-gateway/internal/search"
)

type fakeService struct {
	searchCalls []models.SearchRequest
	result      *search.Result
	err         error
}

func (f *fakeService) Search(ctx context.Context, req models.SearchRequest) (*search.Result, error) {
	f.searchCalls = append(f.searchCalls, req)
	return f.result, f.err
}

func (f *fakeService) Recommend(ctx context.Context, sku string, limit int) (*search.Result, error) {
	return f.result, f.err
}

func (f *fakeService) ProductDetail(ctx context.Context, sku string) (*search.Result, error) {
	return f.result, f.err
}

func newTestHandler(t *testing.T, svc search.Service) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	v, err := validation.New()
	require.NoError(t, err)

	p := pipeline.New(
		pipeline.NewDefaultNormalizer(),
		pipeline.NewDispatcher(svc, 3, 10, log),
		time.Second, log, nil,
	)
	return NewHandler(p, v, log)
}

func postMessage(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)
	return rec
}

// ==========================
// Intake and Reply Tests
// ==========================

func TestHandleMessage_SearchReply(t *testing.T) {
	svc := &fakeService{result: &search.Result{
		Raw: json.RawMessage(`{"results":[{"sku":"HM-001","name":"Martillo de uña","price":12.5,"stock":24}]}`),
		Products: []models.Product{
			{SKU: "HM-001", Name: "Martillo de uña", Price: 12.5, Stock: 24},
		},
	}}
	h := newTestHandler(t, svc)

	rec := postMessage(t, h, `{"from":"5491122334455","message":{"text":"Hola, busco un martillo"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	require.Len(t, svc.searchCalls, 1)
	assert.Equal(t, models.SearchRequest{Query: "martillo", Limit: 3}, svc.searchCalls[0])

	var reply models.TextReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "5491122334455", reply.To)
	assert.Equal(t, "text", reply.Type)
	assert.Contains(t, reply.Message, "Martillo de uña")
}

func TestHandleMessage_GreetingGetsFallback(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(t, svc)

	rec := postMessage(t, h, `{"from":"5491122334455","message":{"text":"Hola, buenos días"}}`)

	// Fallback is a normal reply, never a failure status.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.searchCalls)

	var reply models.TextReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Contains(t, reply.Message, "Bienvenido")
}

// ==========================
// Payload Validation Tests
// ==========================

func TestHandleMessage_RejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `not json at all`},
		{name: "missing from", body: `{"message":{"text":"hola"}}`},
		{name: "missing message", body: `{"from":"549111"}`},
		{name: "missing text", body: `{"from":"549111","message":{}}`},
		{name: "empty from", body: `{"from":"","message":{"text":"hola"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			h := newTestHandler(t, svc)

			rec := postMessage(t, h, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.searchCalls, "rejected payloads must not start a pipeline instance")

			var reply models.ErrorReply
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
			assert.Equal(t, string(stderrors.ErrCodeInvalidPayload), reply.Error)
		})
	}
}

// ==========================
// Upstream Failure Tests
// ==========================

func TestHandleMessage_UpstreamFailureStatus(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "timeout maps to 504",
			err:            stderrors.NewSearchTimeoutError(5 * time.Second),
			expectedStatus: http.StatusGatewayTimeout,
		},
		{
			name:           "unavailable maps to 502",
			err:            stderrors.NewSearchUnavailableError(assert.AnError),
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "bad status maps to 502",
			err:            stderrors.NewSearchBadStatusError(500),
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			h := newTestHandler(t, svc)

			rec := postMessage(t, h, `{"from":"549111","message":{"text":"busco taladro"}}`)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			// The body is still the chat-friendly reply.
			var reply models.TextReply
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
			assert.Contains(t, reply.Message, "no está disponible")
		})
	}
}
