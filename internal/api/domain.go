package api

import (
	"github.com/placerhq/placer/internal/placements"
	"github.com/placerhq/placer/internal/screening"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Placements placements.System
	Screening  screening.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	placementsSystem := placements.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Notifier,
		runtime.Logger,
		runtime.Pagination,
	)

	screeningSystem := screening.New(
		runtime.Agent,
		placementsSystem,
		runtime.Logger,
	)

	return &Domain{
		Placements: placementsSystem,
		Screening:  screeningSystem,
	}
}
