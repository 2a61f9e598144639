// Package campaigns provides the calling-campaign bounded context module:
// campaign CRUD, ledger enrollment, call dispatching, outcome recording
// and campaign CSV ingestion.
package campaigns

import (
	"crm_backend/internal/adapters/storage"
	"crm_backend/internal/campaigns/handler"
	"crm_backend/internal/campaigns/repository"
	"crm_backend/internal/campaigns/service"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the campaigns bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the campaigns module with all its
// dependencies. The storage service may be nil when import archiving is
// disabled.
func NewModule(pool *pgxpool.Pool, leads service.LeadGateway, cfg config.CampaignConfig, eventBus events.Bus, archive storage.StorageService, archiveBucket string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, cfg, eventBus, log)
	importer := service.NewImporter(svc, archive, archiveBucket)
	h := handler.New(svc, importer, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "campaigns"
}

// Service returns the campaigns service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts campaign routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	campaigns := ctx.Protected.Group("/campaigns")
	campaigns.POST("", m.handler.Create)
	campaigns.GET("", m.handler.List)
	campaigns.POST("/upload-csv", m.handler.UploadCSV)
	campaigns.GET("/:id", m.handler.Get)
	campaigns.PATCH("/:id", m.handler.Update)
	campaigns.POST("/:id/start", m.handler.Start)
	campaigns.POST("/:id/pause", m.handler.Pause)
	campaigns.GET("/:id/next-lead", m.handler.NextLead)
	campaigns.POST("/:id/calls", m.handler.RecordCall)
	campaigns.GET("/:id/calls", m.handler.ListCalls)
	campaigns.GET("/:id/stats", m.handler.GetStats)

	// Deleting campaigns is restricted to admins.
	ctx.Admin.DELETE("/campaigns/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
