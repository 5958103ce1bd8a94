// Package profiles provides actor profile lookups and seeds follow state
// from the server-reported viewer relationship.
package profiles

import (
	"context"
	"log/slog"
)

// Gateway is the subset of the Bluesky API surface profile lookups need
type Gateway interface {
	GetProfile(ctx context.Context, actor string) (*Profile, error)
}

// FollowHydrator receives the viewer's follow record for an actor as
// profiles are observed. Implemented by the interactions service.
type FollowHydrator interface {
	HydrateProfile(p *Profile)
}

// Service resolves actor profiles
type Service interface {
	// GetProfile looks up an actor by handle or DID
	GetProfile(ctx context.Context, actor string) (*Profile, error)
}

type profileService struct {
	gw       Gateway
	hydrator FollowHydrator // optional
	logger   *slog.Logger
}

// NewService creates the profile service. The hydrator may be nil.
func NewService(gw Gateway, hydrator FollowHydrator, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &profileService{gw: gw, hydrator: hydrator, logger: logger}
}

func (s *profileService) GetProfile(ctx context.Context, actor string) (*Profile, error) {
	profile, err := s.gw.GetProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	if s.hydrator != nil {
		s.hydrator.HydrateProfile(profile)
	}
	return profile, nil
}
