package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mohtashimnawaz/prediction/internal/oracle"
	"github.com/shopspring/decimal"
)

const (
	defaultCoinGeckoURL     = "https://api.coingecko.com/api/v3/simple/price"
	defaultCryptoCompareURL = "https://min-api.cryptocompare.com/data/price"
)

// Poller fetches USD prices and writes them as fixed-point observations.
// Feeds maps a feed id such as "SOL/USD" to a CoinGecko coin id such as "solana".
type Poller struct {
	store    Store
	feeds    map[string]string
	decimals int32
	client   *http.Client
	now      func() int64

	CoinGeckoURL     string
	CryptoCompareURL string
}

func NewPoller(store Store, feeds map[string]string, decimals int32, now func() int64) *Poller {
	return &Poller{
		store:            store,
		feeds:            feeds,
		decimals:         decimals,
		client:           &http.Client{Timeout: 10 * time.Second},
		now:              now,
		CoinGeckoURL:     defaultCoinGeckoURL,
		CryptoCompareURL: defaultCryptoCompareURL,
	}
}

// ToFixed scales a decimal price to an integer with the given number of decimals.
func ToFixed(price decimal.Decimal, decimals int32) int64 {
	return price.Shift(decimals).Truncate(0).IntPart()
}

// Poll refreshes every configured feed. Feeds CoinGecko does not return are
// retried against CryptoCompare.
func (p *Poller) Poll(ctx context.Context) error {
	if len(p.feeds) == 0 {
		return nil
	}

	prices, err := p.fetchCoinGecko(ctx)
	if err != nil {
		log.Printf("[PriceFeed] CoinGecko request failed: %v", err)
		prices = map[string]decimal.Decimal{}
	}

	observedAt := p.now()
	var failed []string
	for feed, coinID := range p.feeds {
		price, ok := prices[coinID]
		if !ok || price.IsZero() {
			price, err = p.fetchCryptoCompare(ctx, feed)
			if err != nil {
				log.Printf("[PriceFeed] No price for %s: %v", feed, err)
				failed = append(failed, feed)
				continue
			}
		}
		obs := oracle.Observation{Value: ToFixed(price, p.decimals), ObservedAt: observedAt}
		if err := p.store.Write(ctx, feed, obs); err != nil {
			return fmt.Errorf("failed to store %s: %w", feed, err)
		}
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("no price for %s", strings.Join(failed, ", "))
	}
	return nil
}

// Response: {"solana":{"usd":195.83}}
func (p *Poller) fetchCoinGecko(ctx context.Context) (map[string]decimal.Decimal, error) {
	ids := make([]string, 0, len(p.feeds))
	for _, id := range p.feeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")

	var result map[string]map[string]decimal.Decimal
	if err := p.getJSON(ctx, p.CoinGeckoURL+"?"+q.Encode(), &result); err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(result))
	for id, quote := range result {
		if usd, ok := quote["usd"]; ok {
			prices[id] = usd
		}
	}
	return prices, nil
}

// Response: {"USD": 195.83}
func (p *Poller) fetchCryptoCompare(ctx context.Context, feed string) (decimal.Decimal, error) {
	fsym := strings.ToUpper(strings.SplitN(feed, "/", 2)[0])

	var result map[string]decimal.Decimal
	if err := p.getJSON(ctx, fmt.Sprintf("%s?fsym=%s&tsyms=USD", p.CryptoCompareURL, url.QueryEscape(fsym)), &result); err != nil {
		return decimal.Zero, err
	}
	price, ok := result["USD"]
	if !ok || price.IsZero() {
		return decimal.Zero, fmt.Errorf("CryptoCompare returned no USD price for %s", fsym)
	}
	return price, nil
}

func (p *Poller) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	return nil
}
