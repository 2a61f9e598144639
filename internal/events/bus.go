package events

import (
	platformevents "crm_backend/platform/events"
	"crm_backend/platform/logger"
)

// InMemoryBus aliases the platform bus so modules need a single
// events import for both the infrastructure and the event types.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus builds the process-wide bus wired into every module.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
