package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/oracle"
	"github.com/mohtashimnawaz/prediction/internal/services"
)

// PriceResolver resolves ended price markets from the observation store.
type PriceResolver struct {
	resolver  *services.ResolutionService
	interval  time.Duration
	batchSize int
	stopChan  chan struct{}
}

func NewPriceResolver(resolver *services.ResolutionService, interval time.Duration) *PriceResolver {
	return &PriceResolver{
		resolver:  resolver,
		interval:  interval,
		batchSize: 100,
		stopChan:  make(chan struct{}),
	}
}

// Start runs the resolution loop until Stop is called or ctx is done
func (pr *PriceResolver) Start(ctx context.Context) {
	log.Printf("[PriceResolver] Starting price resolution job (interval: %v)", pr.interval)

	ticker := time.NewTicker(pr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pr.RunOnce(ctx)
		case <-ctx.Done():
			log.Println("[PriceResolver] Context done, stopping price resolution job")
			return
		case <-pr.stopChan:
			log.Println("[PriceResolver] Stopping price resolution job")
			return
		}
	}
}

func (pr *PriceResolver) Stop() {
	close(pr.stopChan)
}

// RunOnce attempts every due price market and returns how many were resolved.
// Markets whose feed is stale or missing are retried on the next tick.
func (pr *PriceResolver) RunOnce(ctx context.Context) int {
	markets, err := pr.resolver.DueMarkets(ctx, oracle.DataPrice, pr.batchSize)
	if err != nil {
		log.Printf("[PriceResolver] Error fetching due markets: %v", err)
		return 0
	}
	if len(markets) == 0 {
		return 0
	}

	resolved := 0
	for _, m := range markets {
		_, err := pr.resolver.ResolvePrice(ctx, m.ID)
		switch {
		case err == nil:
			resolved++
		case errors.Is(err, apperr.ErrStaleData), errors.Is(err, apperr.ErrPriceNotAvailable):
			log.Printf("[PriceResolver] Market %d waiting for a fresh observation: %v", m.ID, err)
		case errors.Is(err, apperr.ErrAlreadyResolved):
			// resolved by a caller between listing and locking
		default:
			log.Printf("[PriceResolver] Error resolving market %d: %v", m.ID, err)
		}
	}

	if resolved > 0 {
		log.Printf("[PriceResolver] Resolved %d of %d due markets", resolved, len(markets))
	}
	return resolved
}
