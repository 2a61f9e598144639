package handler

import (
	"io"
	"net/http"
	"strconv"

	"crm_backend/internal/campaigns/repository"
	"crm_backend/internal/campaigns/service"
	"crm_backend/internal/campaigns/transport"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *service.Service
	importer *service.Importer
	val      *validator.Validator
}

func New(svc *service.Service, importer *service.Importer, val *validator.Validator) *Handler {
	return &Handler{svc: svc, importer: importer, val: val}
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agentID, ok := parseOptionalUUID(c, req.AssignedAgentID)
	if !ok {
		return
	}

	campaign, err := h.svc.Create(c.Request.Context(), service.CreateCampaignInput{
		Name:            req.Name,
		Description:     req.Description,
		ClientID:        req.ClientID,
		AssignedAgentID: agentID,
		Timezone:        req.Timezone,
		MaxAttempts:     req.MaxAttempts,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, toCampaignResponse(campaign))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	campaign, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toCampaignResponse(campaign))
}

func (h *Handler) List(c *gin.Context) {
	params := repository.ListParams{
		Search: c.Query("search"),
		Offset: intQuery(c, "offset", 0),
		Limit:  intQuery(c, "limit", 50),
	}
	if status := c.Query("status"); status != "" {
		params.Status = &status
	}
	if clientID := c.Query("clientId"); clientID != "" {
		params.ClientID = &clientID
	}
	if raw := c.Query("assignedAgentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		params.AssignedAgentID = &id
	}

	campaigns, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	items := make([]transport.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		items = append(items, toCampaignResponse(campaign))
	}
	httpkit.OK(c, transport.CampaignListResponse{Items: items, Total: total})
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agentID, ok := parseOptionalUUID(c, req.AssignedAgentID)
	if !ok {
		return
	}

	campaign, err := h.svc.Update(c.Request.Context(), id, repository.UpdateCampaignParams{
		Name:            req.Name,
		Description:     req.Description,
		ClientID:        req.ClientID,
		AssignedAgentID: agentID,
		Timezone:        req.Timezone,
		MaxAttempts:     req.MaxAttempts,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toCampaignResponse(campaign))
}

func (h *Handler) Start(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	campaign, enrolled, err := h.svc.Start(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.StartCampaignResponse{
		Campaign: toCampaignResponse(campaign),
		Enrolled: enrolled,
	})
}

func (h *Handler) Pause(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	campaign, err := h.svc.Pause(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toCampaignResponse(campaign))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// NextLead returns the next dispatchable lead for the caller. The
// optional agentId filter restricts the queue to one agent's
// assignments; claim=true flags the entry in_progress.
func (h *Handler) NextLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var agentID *uuid.UUID
	if raw := c.Query("agentId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		agentID = &parsed
	}
	claim := c.Query("claim") == "true"

	entry, err := h.svc.NextLead(c.Request.Context(), id, agentID, claim)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	if entry == nil {
		c.Status(http.StatusNoContent)
		return
	}

	httpkit.OK(c, toLedgerResponse(*entry))
}

func (h *Handler) RecordCall(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.RecordCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	leadID, err := uuid.Parse(req.LeadID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	agentID, ok := parseOptionalUUID(c, req.AgentID)
	if !ok {
		return
	}

	record, err := h.svc.RecordOutcome(c.Request.Context(), service.RecordOutcomeInput{
		CampaignID:      id,
		LeadID:          leadID,
		AgentID:         agentID,
		Outcome:         req.Outcome,
		Notes:           req.Notes,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	resp := transport.RecordCallResponse{
		CallLog:       toCallLogResponse(record.CallLog),
		LeadStatus:    record.LeadStatus,
		Orphan:        record.Orphan,
		JustCompleted: record.JustCompleted,
		Exhausted:     record.Exhausted,
	}
	if record.Entry != nil {
		ledger := toLedgerResponse(*record.Entry)
		resp.Ledger = &ledger
	}

	httpkit.Created(c, resp)
}

func (h *Handler) ListCalls(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	logs, total, err := h.svc.ListCalls(c.Request.Context(), id, intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	items := make([]transport.CallLogResponse, 0, len(logs))
	for _, log := range logs {
		items = append(items, toCallLogResponse(log))
	}
	httpkit.OK(c, transport.CallLogListResponse{Items: items, Total: total})
}

func (h *Handler) GetStats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	stats, err := h.svc.GetStats(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.CampaignStatsResponse{
		CampaignID:     id.String(),
		TotalLeads:     stats.TotalLeads,
		CompletedLeads: stats.CompletedLeads,
		Pending:        stats.Pending,
		InProgress:     stats.InProgress,
		Completed:      stats.Completed,
		Failed:         stats.Failed,
		TotalCalls:     stats.TotalCalls,
		CallsByOutcome: stats.CallsByOutcome,
	})
}

func (h *Handler) UploadCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}

	result, err := h.importer.ImportCampaigns(c.Request.Context(), fileHeader.Filename, raw)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func toCampaignResponse(campaign repository.Campaign) transport.CampaignResponse {
	resp := transport.CampaignResponse{
		ID:             campaign.ID.String(),
		Code:           campaign.Code,
		Name:           campaign.Name,
		Description:    campaign.Description,
		Status:         campaign.Status,
		ClientID:       campaign.ClientID,
		Timezone:       campaign.Timezone,
		MaxAttempts:    campaign.MaxAttempts,
		TotalLeads:     campaign.TotalLeads,
		CompletedLeads: campaign.CompletedLeads,
		CreatedAt:      campaign.CreatedAt,
		UpdatedAt:      campaign.UpdatedAt,
	}
	if campaign.AssignedAgentID != nil {
		agentID := campaign.AssignedAgentID.String()
		resp.AssignedAgentID = &agentID
	}
	return resp
}

func toLedgerResponse(entry repository.LedgerEntry) transport.LedgerEntryResponse {
	return transport.LedgerEntryResponse{
		ID:              entry.ID.String(),
		CampaignID:      entry.CampaignID.String(),
		LeadID:          entry.LeadID.String(),
		Status:          entry.Status,
		AttemptsMade:    entry.AttemptsMade,
		MaxAttempts:     entry.MaxAttempts,
		NextAttemptAt:   entry.NextAttemptAt,
		LastCallOutcome: entry.LastCallOutcome,
		LastAttemptAt:   entry.LastAttemptAt,
	}
}

func toCallLogResponse(log repository.CallLog) transport.CallLogResponse {
	resp := transport.CallLogResponse{
		ID:              log.ID.String(),
		CampaignID:      log.CampaignID.String(),
		LeadID:          log.LeadID.String(),
		Outcome:         log.Outcome,
		Notes:           log.Notes,
		DurationSeconds: log.DurationSeconds,
		Orphan:          log.Orphan,
		CreatedAt:       log.CreatedAt,
	}
	if log.AgentID != nil {
		agentID := log.AgentID.String()
		resp.AgentID = &agentID
	}
	return resp
}

func parseOptionalUUID(c *gin.Context, raw *string) (*uuid.UUID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return nil, false
	}
	return &id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
