package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/application"
)

func NewRouter(handler *Handler, webhooks *WebhookHandler, service *application.Service, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware(service))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, "", map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, "", map[string]string{"status": "ready"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/automation/health", handler.getHealth)

		// Webhook endpoints authenticate with the platform handshake and
		// payload signature, not bearer tokens.
		r.Get("/webhooks/instagram", webhooks.verify)
		r.Post("/webhooks/instagram", webhooks.handle)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(jwtSecret))

			r.Post("/instagram/link", handler.linkAccount)
			r.Get("/instagram/accounts", handler.listAccounts)
			r.Delete("/instagram/accounts/{accountID}", handler.unlinkAccount)
			r.Get("/instagram/accounts/{accountID}/media", handler.listMedia)
			r.Get("/instagram/accounts/{accountID}/media/{mediaID}/comments", handler.listComments)

			r.Get("/automation/rules", handler.listRules)
			r.Post("/automation/rules", handler.createRule)
			r.Put("/automation/rules/{ruleID}", handler.updateRule)
			r.Delete("/automation/rules/{ruleID}", handler.deleteRule)
			r.Get("/automation/stats", handler.getStats)

			r.Post("/automation/reconcile", handler.triggerReconcile)
			r.Get("/automation/reconcile/status", handler.reconcileStatus)
		})
	})

	return r
}
