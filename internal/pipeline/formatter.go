// internal/pipeline/formatter.go
package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	stderrors "ferreteria-gateway/internal/common/errors"
	"ferreteria-gateway/internal/models"
	"ferreteria-gateway/internal/search"
)

// Conversational reply templates. Grounded in the store assistant's
// original Spanish copy.
const (
	fallbackGreeting = "¡Hola! Bienvenido a nuestra ferretería. 🛠️\n" +
		"Dime qué producto buscas y te muestro opciones.\n" +
		"Trabajamos estas categorías: herramientas manuales, herramientas eléctricas, " +
		"materiales de construcción, pintura y accesorios."

	noResultsTemplate = "No encontré productos para \"%s\". 😕\n" +
		"Prueba con otra búsqueda, por ejemplo: \"martillo\", \"taladro\" o \"pintura blanca\"."

	upstreamErrorText = "⚠️ Nuestro buscador no está disponible en este momento. " +
		"Intenta de nuevo en unos minutos."

	listingHeader = "Encontré estos productos para \"%s\":\n\n"
)

// Formatter renders a channel-appropriate reply from a dispatcher
// outcome. One implementation per channel capability. Results owns the
// empty-list case: passthrough channels forward the payload either
// way, conversational ones switch to the no-results template.
type Formatter interface {
	Results(in models.InboundMessage, query models.NormalizedQuery, result *search.Result, limit int) models.OutboundMessage
	UpstreamError(in models.InboundMessage, stdErr *stderrors.StandardError) models.OutboundMessage
	Fallback(in models.InboundMessage) models.OutboundMessage
}

// ==========================
// Conversational channel
// ==========================

// ConversationalFormatter builds chat-text replies: a numbered listing
// capped at the requested limit, preserving dispatcher ordering.
type ConversationalFormatter struct{}

func NewConversationalFormatter() *ConversationalFormatter {
	return &ConversationalFormatter{}
}

func (f *ConversationalFormatter) Results(in models.InboundMessage, query models.NormalizedQuery, result *search.Result, limit int) models.OutboundMessage {
	entries := renderEntries(result.Products, limit)
	if len(entries) == 0 {
		// Every entry was malformed: degrade to the no-results reply.
		return f.NoResults(in, query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, listingHeader, query.CanonicalText)
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, entry)
	}

	return textMessage(in, b.String())
}

func (f *ConversationalFormatter) NoResults(in models.InboundMessage, query models.NormalizedQuery) models.OutboundMessage {
	return textMessage(in, fmt.Sprintf(noResultsTemplate, query.CanonicalText))
}

func (f *ConversationalFormatter) UpstreamError(in models.InboundMessage, stdErr *stderrors.StandardError) models.OutboundMessage {
	body, _ := json.Marshal(models.TextReply{
		To:      in.SenderID,
		Message: upstreamErrorText,
		Type:    "text",
	})
	return models.OutboundMessage{
		Recipient: in.SenderID,
		Body:      body,
		Channel:   in.Channel,
		Kind:      models.KindError,
	}
}

func (f *ConversationalFormatter) Fallback(in models.InboundMessage) models.OutboundMessage {
	return textMessage(in, fallbackGreeting)
}

// renderEntries builds one listing line per well-formed product,
// preserving order and skipping entries with missing identity fields.
func renderEntries(products []models.Product, limit int) []string {
	entries := make([]string, 0, limit)
	for _, p := range products {
		if len(entries) == limit {
			break
		}
		if p.SKU == "" || p.Name == "" {
			continue
		}
		entries = append(entries, fmt.Sprintf(
			"%s\n   💲 $%.2f | Stock: %d | SKU: %s", p.Name, p.Price, p.Stock, p.SKU,
		))
	}
	return entries
}

func textMessage(in models.InboundMessage, message string) models.OutboundMessage {
	body, _ := json.Marshal(models.TextReply{
		To:      in.SenderID,
		Message: message,
		Type:    "text",
	})
	return models.OutboundMessage{
		Recipient: in.SenderID,
		Body:      body,
		Channel:   in.Channel,
		Kind:      models.KindText,
	}
}

// ==========================
// Structured channel
// ==========================

// StructuredFormatter passes the raw downstream payload through
// unmodified; only failures get re-shaped into the error contract.
type StructuredFormatter struct{}

func NewStructuredFormatter() *StructuredFormatter {
	return &StructuredFormatter{}
}

func (f *StructuredFormatter) Results(in models.InboundMessage, query models.NormalizedQuery, result *search.Result, limit int) models.OutboundMessage {
	return models.OutboundMessage{
		Recipient: in.SenderID,
		Body:      result.Raw,
		Channel:   in.Channel,
		Kind:      models.KindStructured,
	}
}

func (f *StructuredFormatter) UpstreamError(in models.InboundMessage, stdErr *stderrors.StandardError) models.OutboundMessage {
	body, _ := json.Marshal(models.ErrorReply{
		Error:   string(stdErr.Code),
		Message: stdErr.Message,
	})
	return models.OutboundMessage{
		Recipient: in.SenderID,
		Body:      body,
		Channel:   in.Channel,
		Kind:      models.KindError,
	}
}

func (f *StructuredFormatter) Fallback(in models.InboundMessage) models.OutboundMessage {
	// Validation failures are recovered locally, never surfaced as a
	// caller-visible failure: the structured caller gets the same
	// onboarding content as success-shaped JSON.
	body, _ := json.Marshal(map[string]interface{}{
		"message": fallbackGreeting,
		"categories": []string{
			"herramientas manuales", "herramientas eléctricas",
			"materiales de construcción", "pintura y accesorios",
		},
	})
	return models.OutboundMessage{
		Recipient: in.SenderID,
		Body:      body,
		Channel:   in.Channel,
		Kind:      models.KindText,
	}
}
