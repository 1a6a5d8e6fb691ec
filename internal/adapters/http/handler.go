package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/contracts"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
)

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

func (h *Handler) linkAccount(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.LinkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	row, err := h.service.LinkAccount(r.Context(), actor, application.LinkAccountInput{
		InstagramUserID: req.InstagramUserID,
		AccessToken:     req.AccessToken,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "instagram account linked", accountItem(row))
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	rows, err := h.service.ListAccounts(r.Context(), actor)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	items := make([]contracts.AccountItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, accountItem(row))
	}
	writeSuccess(w, http.StatusOK, "", contracts.ListAccountsResponse{Accounts: items})
}

func (h *Handler) unlinkAccount(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid account id", requestIDFromContext(r.Context()))
		return
	}
	if err := h.service.UnlinkAccount(r.Context(), actor, accountID); err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "instagram account unlinked", nil)
}

func (h *Handler) listMedia(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid account id", requestIDFromContext(r.Context()))
		return
	}
	media, err := h.service.ListAccountMedia(r.Context(), actor, accountID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	items := make([]contracts.MediaItem, 0, len(media))
	for _, m := range media {
		items = append(items, contracts.MediaItem{
			MediaID:   m.ID,
			MediaType: m.MediaType,
			MediaURL:  m.MediaURL,
			Caption:   m.Caption,
			Timestamp: timeOrEmpty(m.Timestamp),
		})
	}
	writeSuccess(w, http.StatusOK, "", contracts.ListMediaResponse{Media: items})
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid account id", requestIDFromContext(r.Context()))
		return
	}
	comments, err := h.service.ListMediaComments(r.Context(), actor, accountID, chi.URLParam(r, "mediaID"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	items := make([]contracts.CommentItem, 0, len(comments))
	for _, c := range comments {
		items = append(items, contracts.CommentItem{
			CommentID: c.ID,
			Text:      c.Text,
			FromID:    c.FromID,
			FromName:  c.FromName,
			Timestamp: timeOrEmpty(c.Timestamp),
		})
	}
	writeSuccess(w, http.StatusOK, "", contracts.ListCommentsResponse{Comments: items})
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid account id", requestIDFromContext(r.Context()))
		return
	}
	row, err := h.service.CreateRule(r.Context(), actor, application.CreateRuleInput{
		AccountID:   accountID,
		TriggerType: req.TriggerType,
		Keywords:    req.Keywords,
		DMMessage:   req.DMMessage,
		IsActive:    req.IsActive,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "automation rule created", ruleItem(row))
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	rows, err := h.service.ListRules(r.Context(), actor)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	items := make([]contracts.RuleItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ruleItem(row))
	}
	writeSuccess(w, http.StatusOK, "", contracts.ListRulesResponse{Rules: items})
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid rule id", requestIDFromContext(r.Context()))
		return
	}
	var req contracts.UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	row, err := h.service.UpdateRule(r.Context(), actor, ruleID, application.UpdateRuleInput{
		Keywords:  req.Keywords,
		DMMessage: req.DMMessage,
		IsActive:  req.IsActive,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "automation rule updated", ruleItem(row))
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid rule id", requestIDFromContext(r.Context()))
		return
	}
	if err := h.service.DeleteRule(r.Context(), actor, ruleID); err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "automation rule deleted", nil)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	stats, err := h.service.GetStats(r.Context(), actor)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", contracts.StatsResponse{
		TotalRules:        stats.TotalRules,
		ActiveRules:       stats.ActiveRules,
		ProcessedComments: stats.ProcessedComments,
		MessagesSent:      stats.MessagesSent,
	})
}

func (h *Handler) triggerReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RunReconcileCycle(r.Context())
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "reconcile cycle completed", cycleReportPayload(report))
}

func (h *Handler) reconcileStatus(w http.ResponseWriter, r *http.Request) {
	running, report, ok := h.service.ReconcileStatus(r.Context())
	out := contracts.ReconcileStatusResponse{Running: running}
	if ok {
		payload := cycleReportPayload(report)
		out.LastCycle = &payload
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.service.GetHealth(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeSuccess(w, status, "", health)
}

func accountItem(row domain.InstagramAccount) contracts.AccountItem {
	return contracts.AccountItem{
		AccountID:         row.AccountID.String(),
		InstagramUserID:   row.InstagramUserID,
		Username:          row.Username,
		ProfilePictureURL: row.ProfilePictureURL,
		CreatedAt:         row.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ruleItem(row domain.AutomationRule) contracts.RuleItem {
	keywords := row.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return contracts.RuleItem{
		RuleID:       row.RuleID.String(),
		AccountID:    row.AccountID.String(),
		TriggerType:  row.TriggerType,
		Keywords:     keywords,
		DMMessage:    row.DMMessage,
		IsActive:     row.IsActive,
		TriggerCount: row.TriggerCount,
		CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func cycleReportPayload(report domain.CycleReport) contracts.CycleReportPayload {
	return contracts.CycleReportPayload{
		StartedAt:       report.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:      report.FinishedAt.UTC().Format(time.RFC3339),
		AccountsChecked: report.AccountsChecked,
		CommentsSeen:    report.CommentsSeen,
		DMsSent:         report.DMsSent,
		Errors:          report.Errors,
	}
}

func timeOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
