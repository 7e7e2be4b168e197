package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/csrdesk/internal/api/middlewares"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
	"github.com/markdave123-py/csrdesk/internal/services"
)

type QCHandler struct {
	qc  *services.QCService
	res *Responder
}

func NewQCHandler(qc *services.QCService, res *Responder) *QCHandler {
	return &QCHandler{qc: qc, res: res}
}

type runQCResponse struct {
	DocumentID string           `json:"document_id"`
	Issues     []models.QCIssue `json:"issues"`
}

func (h *QCHandler) Run(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")
	issues, err := h.qc.Run(r.Context(), docID, middleware.UserFromContext(r.Context()), middleware.RequestLanguage(r.Context()))
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	h.res.JSON(w, http.StatusOK, runQCResponse{DocumentID: docID, Issues: issues})
}

type issueQuery struct {
	DocumentID string `form:"document_id" validate:"omitempty,uuid"`
	Status     string `form:"status" validate:"omitempty,oneof=open resolved wont_fix"`
	Severity   string `form:"severity" validate:"omitempty,oneof=info warning error"`
}

func (h *QCHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := issueQuery{DocumentID: q.Get("document_id"), Status: q.Get("status"), Severity: q.Get("severity")}
	if err := h.res.Validate(query); err != nil {
		h.res.Error(w, r, err)
		return
	}
	issues, err := h.qc.ListIssues(r.Context(), core.IssueFilter{
		StudyID:    chi.URLParam(r, "studyID"),
		DocumentID: query.DocumentID,
		Status:     query.Status,
		Severity:   query.Severity,
	})
	if err != nil {
		h.res.Error(w, r, err)
		return
	}
	if issues == nil {
		issues = []models.QCIssue{}
	}
	h.res.JSON(w, http.StatusOK, issues)
}
