// internal/pipeline/formatter_test.go
package pipeline

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "ferreteria-gateway/internal/common/errors"
	"ferreteria-gateway/internal/models"
	"ferreteria-gateway/internal/search"
)

func conversationalInbound() models.InboundMessage {
	return models.InboundMessage{
		ID:       "msg-1",
		Channel:  models.ChannelConversational,
		SenderID: "5491122334455",
		RawText:  "Hola, busco un martillo",
	}
}

func structuredInbound() models.InboundMessage {
	return models.InboundMessage{
		ID:       "msg-2",
		Channel:  models.ChannelAPI,
		SenderID: "api-caller",
		RawQuery: &models.StructuredQuery{Query: "martillo", Limit: 5},
	}
}

func decodeTextReply(t *testing.T, msg models.OutboundMessage) models.TextReply {
	t.Helper()
	var reply models.TextReply
	require.NoError(t, json.Unmarshal(msg.Body, &reply))
	return reply
}

// ==========================
// Conversational Formatter
// ==========================

func TestConversationalFormatter_Results(t *testing.T) {
	f := NewConversationalFormatter()
	query := models.NormalizedQuery{CanonicalText: "martillo", SenderID: "5491122334455"}

	result := &search.Result{Products: []models.Product{
		{SKU: "HM-001", Name: "Martillo de uña 16oz", Price: 12.50, Stock: 24},
		{SKU: "HM-002", Name: "Martillo de bola", Price: 15.00, Stock: 8},
		{SKU: "HM-003", Name: "Maza de goma", Price: 9.90, Stock: 0},
	}}

	msg := f.Results(conversationalInbound(), query, result, 3)
	reply := decodeTextReply(t, msg)

	assert.Equal(t, models.KindText, msg.Kind)
	assert.Equal(t, "5491122334455", reply.To)
	assert.Equal(t, "text", reply.Type)

	assert.Contains(t, reply.Message, `Encontré estos productos para "martillo":`)
	assert.Contains(t, reply.Message, "1. Martillo de uña 16oz")
	assert.Contains(t, reply.Message, "2. Martillo de bola")
	assert.Contains(t, reply.Message, "3. Maza de goma")
	assert.Contains(t, reply.Message, "💲 $12.50 | Stock: 24 | SKU: HM-001")

	// Upstream ordering must survive formatting.
	assert.Less(t,
		strings.Index(reply.Message, "HM-001"),
		strings.Index(reply.Message, "HM-002"),
	)
}

func TestConversationalFormatter_Results_CapsAtLimit(t *testing.T) {
	f := NewConversationalFormatter()
	query := models.NormalizedQuery{CanonicalText: "clavos"}

	result := &search.Result{Products: []models.Product{
		{SKU: "CL-001", Name: "Clavos 1in"},
		{SKU: "CL-002", Name: "Clavos 2in"},
		{SKU: "CL-003", Name: "Clavos 3in"},
		{SKU: "CL-004", Name: "Clavos 4in"},
	}}

	reply := decodeTextReply(t, f.Results(conversationalInbound(), query, result, 3))

	assert.Contains(t, reply.Message, "3. Clavos 3in")
	assert.NotContains(t, reply.Message, "CL-004")
}

func TestConversationalFormatter_Results_SkipsMalformedEntries(t *testing.T) {
	f := NewConversationalFormatter()
	query := models.NormalizedQuery{CanonicalText: "taladro"}

	result := &search.Result{Products: []models.Product{
		{SKU: "", Name: "Sin SKU"},
		{SKU: "TL-001", Name: "Taladro percutor", Price: 89.99, Stock: 5},
		{SKU: "TL-002", Name: ""},
	}}

	reply := decodeTextReply(t, f.Results(conversationalInbound(), query, result, 3))

	assert.Contains(t, reply.Message, "1. Taladro percutor")
	assert.NotContains(t, reply.Message, "2.")
	assert.NotContains(t, reply.Message, "Sin SKU")
}

func TestConversationalFormatter_NoResults(t *testing.T) {
	f := NewConversationalFormatter()
	query := models.NormalizedQuery{CanonicalText: "unobtainium"}

	t.Run("empty product list", func(t *testing.T) {
		reply := decodeTextReply(t, f.Results(conversationalInbound(), query, &search.Result{}, 3))
		assert.Contains(t, reply.Message, `No encontré productos para "unobtainium".`)
		assert.Contains(t, reply.Message, "Prueba con otra búsqueda")
	})

	t.Run("all entries malformed", func(t *testing.T) {
		result := &search.Result{Products: []models.Product{{SKU: "", Name: ""}}}
		reply := decodeTextReply(t, f.Results(conversationalInbound(), query, result, 3))
		assert.Contains(t, reply.Message, "No encontré productos")
	})
}

func TestConversationalFormatter_UpstreamError(t *testing.T) {
	f := NewConversationalFormatter()

	msg := f.UpstreamError(conversationalInbound(), stderrors.NewSearchUnavailableError(assert.AnError))
	reply := decodeTextReply(t, msg)

	assert.Equal(t, models.KindError, msg.Kind)
	assert.Contains(t, reply.Message, "no está disponible")
	// The chat reply never leaks internal error detail.
	assert.NotContains(t, reply.Message, "assert.AnError")
}

func TestConversationalFormatter_Fallback(t *testing.T) {
	f := NewConversationalFormatter()

	in := conversationalInbound()
	in.RawText = "Hola"
	reply := decodeTextReply(t, f.Fallback(in))

	assert.Contains(t, reply.Message, "Bienvenido a nuestra ferretería")
	assert.Contains(t, reply.Message, "herramientas manuales")
}

// ==========================
// Structured Formatter
// ==========================

func TestStructuredFormatter_Results_Passthrough(t *testing.T) {
	f := NewStructuredFormatter()
	query := models.NormalizedQuery{CanonicalText: "martillo"}

	raw := json.RawMessage(`{"results":[{"sku":"HM-001","name":"Martillo","price":12.5,"stock":24}]}`)
	result := &search.Result{Raw: raw, Products: []models.Product{{SKU: "HM-001", Name: "Martillo"}}}

	msg := f.Results(structuredInbound(), query, result, 5)

	assert.Equal(t, models.KindStructured, msg.Kind)
	assert.JSONEq(t, string(raw), string(msg.Body))
}

func TestStructuredFormatter_Results_EmptyPassthrough(t *testing.T) {
	f := NewStructuredFormatter()
	query := models.NormalizedQuery{CanonicalText: "unobtainium"}

	raw := json.RawMessage(`{"results":[]}`)
	msg := f.Results(structuredInbound(), query, &search.Result{Raw: raw}, 5)

	// Empty payloads are forwarded verbatim, never re-shaped.
	assert.JSONEq(t, `{"results":[]}`, string(msg.Body))
}

func TestStructuredFormatter_UpstreamError(t *testing.T) {
	f := NewStructuredFormatter()

	tests := []struct {
		name         string
		stdErr       *stderrors.StandardError
		expectedCode string
	}{
		{
			name:         "timeout",
			stdErr:       stderrors.NewSearchTimeoutError(5 * time.Second),
			expectedCode: string(stderrors.ErrCodeSearchTimeout),
		},
		{
			name:         "unavailable",
			stdErr:       stderrors.NewSearchUnavailableError(assert.AnError),
			expectedCode: string(stderrors.ErrCodeSearchUnavailable),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := f.UpstreamError(structuredInbound(), tt.stdErr)

			var reply models.ErrorReply
			require.NoError(t, json.Unmarshal(msg.Body, &reply))
			assert.Equal(t, models.KindError, msg.Kind)
			assert.Equal(t, tt.expectedCode, reply.Error)
			assert.NotEmpty(t, reply.Message)
		})
	}
}

func TestStructuredFormatter_Fallback(t *testing.T) {
	f := NewStructuredFormatter()

	msg := f.Fallback(structuredInbound())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &body))

	// Success-shaped: no "error" key.
	assert.NotContains(t, body, "error")
	assert.Contains(t, body, "message")
	assert.Contains(t, body, "categories")
	assert.Equal(t, models.KindText, msg.Kind)
}
