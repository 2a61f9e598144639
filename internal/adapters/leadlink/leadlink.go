// Package leadlink bridges the campaigns module to the leads module so
// the two bounded contexts depend on a narrow adapter instead of each
// other's services.
package leadlink

import (
	"context"

	leadsvc "crm_backend/internal/leads/service"
	"crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// Gateway adapts the leads service to the lookup and status-update
// operations the campaigns module needs.
type Gateway struct {
	leads *leadsvc.Service
}

func New(leads *leadsvc.Service) *Gateway {
	return &Gateway{leads: leads}
}

// Exists reports whether a lead with the given ID exists.
func (g *Gateway) Exists(ctx context.Context, leadID uuid.UUID) (bool, error) {
	_, err := g.leads.Get(ctx, leadsvc.SystemViewer, leadID)
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetStatus updates a lead's status using the canonical vocabulary.
func (g *Gateway) SetStatus(ctx context.Context, leadID uuid.UUID, status string) error {
	_, err := g.leads.UpdateStatus(ctx, leadsvc.SystemViewer, leadID, status)
	return err
}
