package services

import (
	"context"
	"log"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/blockchain"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/repository"
)

// PlatformService owns the single platform record.
type PlatformService struct {
	repo  *repository.Repository
	clock Clock
}

func NewPlatformService(repo *repository.Repository, clock Clock) *PlatformService {
	return &PlatformService{repo: repo, clock: clock}
}

// CreatePlatform initializes the platform with caller as fee authority.
func (s *PlatformService) CreatePlatform(ctx context.Context, caller, treasury string) (*models.Platform, error) {
	if !blockchain.ValidateWalletAddress(treasury) {
		return nil, apperr.ErrInvalidAddress
	}
	platform := &models.Platform{
		Authority: caller,
		Treasury:  treasury,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreatePlatform(ctx, platform); err != nil {
		return nil, err
	}
	log.Printf("[PlatformService] Platform initialized: authority=%s treasury=%s", caller, treasury)
	return platform, nil
}

func (s *PlatformService) GetPlatform(ctx context.Context) (*models.Platform, error) {
	return s.repo.GetPlatform(ctx)
}
