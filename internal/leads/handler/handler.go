package handler

import (
	"io"
	"net/http"
	"strconv"

	"crm_backend/internal/leads/repository"
	"crm_backend/internal/leads/service"
	"crm_backend/internal/leads/transport"
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

// viewerFrom builds the role-scoped viewer from the authenticated
// request identity. Aborts with 401 when no identity is present.
func viewerFrom(c *gin.Context) (service.Viewer, bool) {
	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return service.Viewer{}, false
	}
	return service.Viewer{UserID: ident.UserID(), Role: ident.Role()}, true
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
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
	campaignID, ok := parseOptionalUUID(c, req.CampaignID)
	if !ok {
		return
	}
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), viewer, service.CreateLeadInput{
		LeadType:        req.LeadType,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		BusinessName:    req.BusinessName,
		BusinessPhone:   req.BusinessPhone,
		BusinessAddress: req.BusinessAddress,
		Status:          req.Status,
		Source:          req.Source,
		ClientID:        req.ClientID,
		AssignedAgentID: agentID,
		CampaignID:      campaignID,
		Notes:           req.Notes,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, toLeadResponse(lead))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), viewer, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toLeadResponse(lead))
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
	if leadType := c.Query("leadType"); leadType != "" {
		params.LeadType = &leadType
	}
	if clientID := c.Query("clientId"); clientID != "" {
		params.ClientID = &clientID
	}
	if raw := c.Query("campaignId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		params.CampaignID = &id
	}
	if raw := c.Query("assignedAgentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		params.AssignedAgentID = &id
	}

	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	leads, total, err := h.svc.List(c.Request.Context(), viewer, params)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}
	httpkit.OK(c, transport.LeadListResponse{Items: items, Total: total})
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateLeadRequest
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

	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), viewer, id, repository.UpdateLeadParams{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		BusinessName:    req.BusinessName,
		BusinessPhone:   req.BusinessPhone,
		BusinessAddress: req.BusinessAddress,
		Source:          req.Source,
		ClientID:        req.ClientID,
		AssignedAgentID: agentID,
		Notes:           req.Notes,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toLeadResponse(lead))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), viewer, id, req.Status)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toLeadResponse(lead))
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

	httpkit.OK(c, gin.H{"message": "lead deleted"})
}

func (h *Handler) AssignCampaign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AssignCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	campaignID, ok := parseOptionalUUID(c, req.CampaignID)
	if !ok {
		return
	}

	viewer, vok := viewerFrom(c)
	if !vok {
		return
	}

	lead, err := h.svc.AssignCampaign(c.Request.Context(), viewer, id, campaignID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, toLeadResponse(lead))
}

func (h *Handler) GetCampaignHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	entries, err := h.svc.GetCampaignHistory(c.Request.Context(), viewer, id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	out := make([]transport.CampaignHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		item := transport.CampaignHistoryResponse{ChangedAt: entry.ChangedAt}
		if entry.FromCampaignID != nil {
			from := entry.FromCampaignID.String()
			item.FromCampaignID = &from
		}
		if entry.ToCampaignID != nil {
			to := entry.ToCampaignID.String()
			item.ToCampaignID = &to
		}
		if entry.ChangedBy != nil {
			actor := entry.ChangedBy.String()
			item.ChangedBy = &actor
		}
		out = append(out, item)
	}
	httpkit.OK(c, out)
}

// UploadCSV ingests a CSV of leads. An optional campaignId form field
// attaches every created lead to that campaign.
func (h *Handler) UploadCSV(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}

	var campaignID *uuid.UUID
	if raw := c.PostForm("campaignId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		campaignID = &id
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}

	result, err := h.importer.ImportLeads(c.Request.Context(), viewer, fileHeader.Filename, raw, campaignID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:              lead.ID.String(),
		LeadType:        lead.LeadType,
		FirstName:       lead.FirstName,
		LastName:        lead.LastName,
		Email:           lead.Email,
		Phone:           lead.Phone,
		BusinessName:    lead.BusinessName,
		BusinessPhone:   lead.BusinessPhone,
		BusinessAddress: lead.BusinessAddress,
		Status:          lead.Status,
		Source:          lead.Source,
		ClientID:        lead.ClientID,
		Notes:           lead.Notes,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
	if lead.AssignedAgentID != nil {
		agentID := lead.AssignedAgentID.String()
		resp.AssignedAgentID = &agentID
	}
	if lead.CampaignID != nil {
		campaignID := lead.CampaignID.String()
		resp.CampaignID = &campaignID
	}
	if lead.CreatedBy != nil {
		createdBy := lead.CreatedBy.String()
		resp.CreatedBy = &createdBy
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
