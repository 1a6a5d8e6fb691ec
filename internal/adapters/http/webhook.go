package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/contracts"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

const signatureHeader = "X-Hub-Signature-256"

// WebhookHandler ingests Instagram push notifications. Every authenticated
// comment change is mapped to a CommentEvent and handed to the engine; the
// engine's ledger makes replays and polling overlap harmless.
type WebhookHandler struct {
	service     *application.Service
	accounts    ports.AccountRepository
	verifyToken string
	appSecret   string
}

func NewWebhookHandler(service *application.Service, accounts ports.AccountRepository, verifyToken, appSecret string) *WebhookHandler {
	return &WebhookHandler{
		service:     service,
		accounts:    accounts,
		verifyToken: verifyToken,
		appSecret:   appSecret,
	}
}

// verify answers the platform's GET challenge handshake.
func (h *WebhookHandler) verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "" || token == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if mode != "subscribe" || token != h.verifyToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// handle processes a signed POST delivery. The signature covers the exact
// raw body, so the body is read before any JSON decoding; a mismatch
// rejects the request without ever reaching the engine.
func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !h.validSignature(r.Header.Get(signatureHeader), body) {
		slog.Default().WarnContext(r.Context(), "webhook signature rejected",
			"module", "http.webhook",
			"layer", "adapter",
			"operation", "handle_webhook",
			"outcome", "rejected",
		)
		writeError(w, http.StatusForbidden, "invalid_webhook_signature", domain.ErrInvalidSignature.Error(), requestIDFromContext(r.Context()))
		return
	}

	var payload contracts.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid webhook payload", requestIDFromContext(r.Context()))
		return
	}

	if payload.Object == "instagram" {
		for _, entry := range payload.Entry {
			h.processEntry(r, entry)
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("EVENT_RECEIVED"))
}

// processEntry handles one webhook entry; a failure inside one entry never
// blocks the remaining entries of the batch.
func (h *WebhookHandler) processEntry(r *http.Request, entry contracts.WebhookEntry) {
	for _, change := range entry.Changes {
		if change.Field != "comments" || strings.TrimSpace(change.Value.Text) == "" {
			continue
		}

		account, err := h.accounts.GetByInstagramUserID(r.Context(), entry.ID)
		if err != nil {
			slog.Default().WarnContext(r.Context(), "webhook for unknown account",
				"module", "http.webhook",
				"layer", "adapter",
				"operation", "process_entry",
				"outcome", "skipped",
				"instagram_user_id", entry.ID,
			)
			continue
		}

		observedAt := time.Now().UTC()
		if entry.Time > 0 {
			observedAt = time.Unix(entry.Time, 0).UTC()
		}
		result, err := h.service.ProcessComment(r.Context(), domain.CommentEvent{
			AccountID:   account.AccountID,
			MediaID:     change.Value.Media.ID,
			CommentID:   change.Value.ID,
			CommenterID: change.Value.From.ID,
			Text:        change.Value.Text,
			ObservedAt:  observedAt,
		})
		if err != nil {
			slog.Default().ErrorContext(r.Context(), "webhook comment processing failed",
				"module", "http.webhook",
				"layer", "adapter",
				"operation", "process_entry",
				"outcome", "failure",
				"comment_id", change.Value.ID,
				"error", err,
			)
			continue
		}
		if result.DMSent {
			slog.Default().InfoContext(r.Context(), "automated dm sent from webhook",
				"module", "http.webhook",
				"layer", "adapter",
				"operation", "process_entry",
				"outcome", "success",
				"comment_id", change.Value.ID,
			)
		}
	}
}

// validSignature recomputes the keyed hash over the raw body and compares in
// constant time against the sha256= prefixed header value.
func (h *WebhookHandler) validSignature(header string, body []byte) bool {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "sha256=") {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(header, "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
