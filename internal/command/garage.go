package command

import (
	"context"

	"github.com/pfrederiksen/garage-status/internal/garage"
	"github.com/pfrederiksen/garage-status/internal/report"
)

// Refresher supplies the current garage set
type Refresher interface {
	Refresh(ctx context.Context) garage.Set
}

// Garage answers "how full are the garages right now?"
type Garage struct {
	garages Refresher
}

// NewGarage creates the garage command on top of a cache controller
func NewGarage(garages Refresher) *Garage {
	return &Garage{garages: garages}
}

func (g *Garage) Name() string        { return "garage" }
func (g *Garage) Description() string { return "Gets garage status." }
func (g *Garage) Usage() string       { return "garage <which garage>" }
func (g *Garage) Permission() Tier    { return TierPublic }

// Validate accepts any arguments
func (g *Garage) Validate(ctx context.Context, msg Message, args []string) bool {
	return true
}

// Execute replies with every known garage. Arguments do not filter the report.
func (g *Garage) Execute(ctx context.Context, msg Message, args []string) error {
	return msg.Reply(ctx, g.Report(ctx))
}

// Report refreshes the garage set and renders it
func (g *Garage) Report(ctx context.Context) string {
	return report.Render(g.garages.Refresh(ctx))
}
