package services

import (
	"context"
	"log"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/oracle"
	"github.com/mohtashimnawaz/prediction/internal/pricefeed"
	"github.com/mohtashimnawaz/prediction/internal/repository"
)

// ResolutionService settles market outcomes through the path configured on each market.
type ResolutionService struct {
	repo         *repository.Repository
	clock        Clock
	feeds        pricefeed.Reader
	maxStaleness int64
}

func NewResolutionService(repo *repository.Repository, clock Clock, feeds pricefeed.Reader, maxStaleness int64) *ResolutionService {
	if maxStaleness <= 0 {
		maxStaleness = oracle.MaxStaleness
	}
	return &ResolutionService{
		repo:         repo,
		clock:        clock,
		feeds:        feeds,
		maxStaleness: maxStaleness,
	}
}

// decideFunc evaluates the locked market and returns the updated spec and outcome.
type decideFunc func(market *models.Market, now int64) (oracle.Spec, bool, error)

// resolve applies the common guards in order: exists, unresolved, path, ended.
// decide runs last and its result is written once.
func (s *ResolutionService) resolve(ctx context.Context, marketID uint64, path oracle.Path, decide decideFunc) (*models.Market, error) {
	now := s.clock.Now()

	var market *models.Market
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		market, err = tx.LockMarket(ctx, marketID)
		if err != nil {
			return err
		}
		if market.Resolved {
			return apperr.ErrAlreadyResolved
		}
		if err := market.Oracle.Expect(path); err != nil {
			return err
		}
		if now < market.EndTime {
			return apperr.ErrNotEnded
		}

		spec, outcome, err := decide(market, now)
		if err != nil {
			return err
		}
		if err := tx.MarkResolved(ctx, marketID, spec, outcome, now); err != nil {
			return err
		}

		market.Resolved = true
		market.Outcome = &outcome
		market.ResolvedAt = &now
		market.Oracle = spec
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Resolver] Market %d resolved via %s: outcome=%v", marketID, path, *market.Outcome)
	return market, nil
}

func requireAuthority(market *models.Market, caller string) error {
	if caller != market.Authority {
		return apperr.ErrUnauthorized
	}
	return nil
}

// ResolveManual lets the market authority set the outcome directly.
func (s *ResolutionService) ResolveManual(ctx context.Context, marketID uint64, caller string, outcome bool) (*models.Market, error) {
	return s.resolve(ctx, marketID, oracle.PathManual, func(m *models.Market, _ int64) (oracle.Spec, bool, error) {
		if err := requireAuthority(m, caller); err != nil {
			return oracle.Spec{}, false, err
		}
		return m.Oracle, outcome, nil
	})
}

// ResolvePrice is permissionless. It reads the latest observation of the
// configured feed and rejects it when older than the staleness bound.
func (s *ResolutionService) ResolvePrice(ctx context.Context, marketID uint64) (*models.Market, error) {
	return s.resolve(ctx, marketID, oracle.PathPrice, func(m *models.Market, now int64) (oracle.Spec, bool, error) {
		cfg := m.Oracle.Config.(oracle.Price)
		obs, err := s.feeds.Read(ctx, cfg.Feed)
		if err != nil {
			return oracle.Spec{}, false, err
		}
		out, yes, err := cfg.Evaluate(obs, now, s.maxStaleness)
		if err != nil {
			return oracle.Spec{}, false, err
		}
		return oracle.Spec{Source: m.Oracle.Source, Config: out}, yes, nil
	})
}

func (s *ResolutionService) ResolveSports(ctx context.Context, marketID uint64, caller string, scoreA, scoreB uint32) (*models.Market, error) {
	return s.resolve(ctx, marketID, oracle.PathSports, func(m *models.Market, _ int64) (oracle.Spec, bool, error) {
		if err := requireAuthority(m, caller); err != nil {
			return oracle.Spec{}, false, err
		}
		out, yes := m.Oracle.Config.(oracle.Sports).Evaluate(scoreA, scoreB)
		return oracle.Spec{Source: m.Oracle.Source, Config: out}, yes, nil
	})
}

func (s *ResolutionService) ResolveWeather(ctx context.Context, marketID uint64, caller string, recorded int64) (*models.Market, error) {
	return s.resolve(ctx, marketID, oracle.PathWeather, func(m *models.Market, _ int64) (oracle.Spec, bool, error) {
		if err := requireAuthority(m, caller); err != nil {
			return oracle.Spec{}, false, err
		}
		out, yes, err := m.Oracle.Config.(oracle.Weather).Evaluate(recorded)
		if err != nil {
			return oracle.Spec{}, false, err
		}
		return oracle.Spec{Source: m.Oracle.Source, Config: out}, yes, nil
	})
}

// ResolveSocial settles social, box office and custom threshold markets.
func (s *ResolutionService) ResolveSocial(ctx context.Context, marketID uint64, caller string, actual uint64) (*models.Market, error) {
	return s.resolve(ctx, marketID, oracle.PathThreshold, func(m *models.Market, _ int64) (oracle.Spec, bool, error) {
		if err := requireAuthority(m, caller); err != nil {
			return oracle.Spec{}, false, err
		}
		out, yes, err := m.Oracle.Config.(oracle.Threshold).Evaluate(actual)
		if err != nil {
			return oracle.Spec{}, false, err
		}
		return oracle.Spec{Source: m.Oracle.Source, Config: out}, yes, nil
	})
}

// DueMarkets lists ended, unresolved markets of a data type.
func (s *ResolutionService) DueMarkets(ctx context.Context, dataType oracle.DataType, limit int) ([]*models.Market, error) {
	return s.repo.ListDueMarkets(ctx, dataType, s.clock.Now(), limit)
}
