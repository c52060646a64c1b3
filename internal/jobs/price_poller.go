package jobs

import (
	"context"
	"log"
	"time"

	"github.com/mohtashimnawaz/prediction/internal/pricefeed"
)

// PricePoller refreshes the observation store on an interval.
type PricePoller struct {
	poller   *pricefeed.Poller
	interval time.Duration
	stopChan chan struct{}
}

func NewPricePoller(poller *pricefeed.Poller, interval time.Duration) *PricePoller {
	return &PricePoller{
		poller:   poller,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start polls immediately, then on every tick until Stop is called or ctx is done
func (pp *PricePoller) Start(ctx context.Context) {
	log.Printf("[PricePoller] Starting price poller (interval: %v)", pp.interval)
	pp.poll(ctx)

	ticker := time.NewTicker(pp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pp.poll(ctx)
		case <-ctx.Done():
			log.Println("[PricePoller] Context done, stopping price poller")
			return
		case <-pp.stopChan:
			log.Println("[PricePoller] Stopping price poller")
			return
		}
	}
}

func (pp *PricePoller) Stop() {
	close(pp.stopChan)
}

func (pp *PricePoller) poll(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, pp.interval)
	defer cancel()
	if err := pp.poller.Poll(ctx); err != nil {
		log.Printf("[PricePoller] Poll error: %v", err)
	}
}
