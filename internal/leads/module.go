// Package leads provides the lead management bounded context module:
// lead CRUD, duplicate detection, campaign assignment and CSV ingestion.
package leads

import (
	"crm_backend/internal/adapters/storage"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/leads/handler"
	"crm_backend/internal/leads/repository"
	"crm_backend/internal/leads/service"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
// The storage service may be nil when import archiving is disabled.
func NewModule(pool *pgxpool.Pool, cfg config.CampaignConfig, eventBus events.Bus, archive storage.StorageService, archiveBucket string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, eventBus, log)
	importer := service.NewImporter(svc, archive, archiveBucket)
	h := handler.New(svc, importer, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the leads repository for cross-module adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.Protected.Group("/leads")
	leads.POST("", m.handler.Create)
	leads.GET("", m.handler.List)
	leads.POST("/upload-csv", m.handler.UploadCSV)
	leads.GET("/:id", m.handler.Get)
	leads.PATCH("/:id", m.handler.Update)
	leads.PUT("/:id/status", m.handler.UpdateStatus)
	leads.PUT("/:id/campaign", m.handler.AssignCampaign)
	leads.GET("/:id/campaign-history", m.handler.GetCampaignHistory)

	// Deleting leads is restricted to admins.
	ctx.Admin.DELETE("/leads/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
