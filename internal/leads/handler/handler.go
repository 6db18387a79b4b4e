package handler

import (
	"net/http"

	"funnel_crm_backend/internal/leads/hotlist"
	"funnel_crm_backend/internal/leads/lifecycle"
	"funnel_crm_backend/internal/leads/scoring"
	"funnel_crm_backend/internal/leads/transport"
	"funnel_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	lifecycle *lifecycle.Service
	scores    *scoring.Service
	hot       *hotlist.HotList
}

func New(lifecycleSvc *lifecycle.Service, scoreSvc *scoring.Service, hot *hotlist.HotList) *Handler {
	return &Handler{lifecycle: lifecycleSvc, scores: scoreSvc, hot: hot}
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "BAD_REQUEST")
		return
	}

	lead, err := h.lifecycle.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) List(c *gin.Context) {
	leads, err := h.lifecycle.List(c.Request.Context(), c.Query("stage"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, leads)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	lead, err := h.lifecycle.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Move(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.MoveLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "BAD_REQUEST")
		return
	}

	lead, err := h.lifecycle.Move(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) CloseDeal(c *gin.Context) {
	h.closeDeal(c, false)
}

func (h *Handler) AmendClose(c *gin.Context) {
	h.closeDeal(c, true)
}

func (h *Handler) closeDeal(c *gin.Context, amend bool) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.CloseDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "BAD_REQUEST")
		return
	}

	lead, err := h.lifecycle.CloseDeal(c.Request.Context(), id, req, amend)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) RecordAction(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.RecordActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "BAD_REQUEST")
		return
	}

	lead, err := h.lifecycle.RecordAction(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) ListMovements(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	records, err := h.lifecycle.Movements(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, records)
}

func (h *Handler) ListActivities(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	items, err := h.lifecycle.Activities(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}

func (h *Handler) RecalculateScore(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	score, err := h.scores.Recalculate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ScoreResponse{
		Fit:      score.Fit,
		Intent:   score.Intent,
		Behavior: score.Behavior,
		Overall:  score.Overall,
		Tier:     string(score.Tier),
		Trend:    string(score.Trend),
		Version:  score.Version,
	})
}

func (h *Handler) RecalculateAllScores(c *gin.Context) {
	recomputed, err := h.scores.RecalculateAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"recomputed": recomputed})
}

func (h *Handler) ScoreHistory(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	snapshots, err := h.scores.History(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToScoreSnapshotResponses(snapshots))
}

func (h *Handler) HotLeads(c *gin.Context) {
	if h.hot == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "hot list is not configured", "HOTLIST_UNAVAILABLE")
		return
	}
	entries, err := h.hot.Top(c.Request.Context(), 20)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.HotLeadResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, transport.HotLeadResponse{LeadID: entry.LeadID, Overall: entry.Overall})
	}
	httpkit.OK(c, out)
}

func (h *Handler) AddNote(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "BAD_REQUEST")
		return
	}

	var authorID *uuid.UUID
	if raw, exists := c.Get(httpkit.ContextUserIDKey); exists {
		if userID, isUUID := raw.(uuid.UUID); isUUID {
			authorID = &userID
		}
	}

	note, err := h.lifecycle.AddNote(c.Request.Context(), id, authorID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, note)
}

func (h *Handler) ListNotes(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	notes, err := h.lifecycle.Notes(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, notes)
}

func (h *Handler) UpdateTags(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.UpdateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "BAD_REQUEST")
		return
	}

	lead, err := h.lifecycle.UpdateTags(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", "BAD_REQUEST")
		return uuid.Nil, false
	}
	return id, true
}
