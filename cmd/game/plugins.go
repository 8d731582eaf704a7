package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/tatianab/saga/internal/engine"
	"github.com/tatianab/saga/internal/models"
)

// locationLog records every location the story visits.
type locationLog struct {
	logger *zap.Logger
}

var _ engine.LocationChangeHandler = (*locationLog)(nil)

func newLocationLog(logger *zap.Logger) *locationLog {
	return &locationLog{logger: logger.Named("locations")}
}

func (*locationLog) Name() string { return "location-log" }

func (p *locationLog) OnLocationChange(_ context.Context, loc models.Location, s *models.State) error {
	p.logger.Info("location change",
		zap.String("location", loc.Name),
		zap.String("type", string(loc.Type)),
		zap.Int("known_locations", len(s.Locations)),
	)
	return nil
}
