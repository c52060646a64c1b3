package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/glebarez/sqlite"
	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/blockchain"
	"github.com/mohtashimnawaz/prediction/internal/database"
	"github.com/mohtashimnawaz/prediction/internal/ledger"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/oracle"
	"github.com/mohtashimnawaz/prediction/internal/payout"
	"github.com/mohtashimnawaz/prediction/internal/pricefeed"
	"github.com/mohtashimnawaz/prediction/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	startTime      = int64(1_700_000_000)
	openingBalance = uint64(1_000_000)
	admin          = "admin"
	creator        = "creator"
)

type fixture struct {
	now       int64
	repo      *repository.Repository
	custody   *blockchain.MemoryCustody
	ownership *blockchain.StaticOwnership
	feeds     *pricefeed.MemoryStore
	vaults    blockchain.HashVaults
	treasury  string

	platforms *PlatformService
	markets   *MarketService
	resolver  *ResolutionService
	payouts   *PayoutService
	cards     *CardService
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newFixtureWithCustody(t *testing.T, custody blockchain.Custody) *fixture {
	f := &fixture{
		now:       startTime,
		repo:      repository.NewRepository(setupTestDB(t)),
		custody:   blockchain.NewMemoryCustody(openingBalance),
		ownership: blockchain.NewStaticOwnership(),
		feeds:     pricefeed.NewMemoryStore(),
		vaults:    blockchain.HashVaults{Prefix: "test"},
		treasury:  solana.NewWallet().PublicKey().String(),
	}
	if custody == nil {
		custody = f.custody
	}
	clock := ClockFunc(func() int64 { return f.now })

	f.platforms = NewPlatformService(f.repo, clock)
	f.markets = NewMarketService(f.repo, clock, custody, f.vaults, f.ownership)
	f.resolver = NewResolutionService(f.repo, clock, f.feeds, oracle.MaxStaleness)
	f.payouts = NewPayoutService(f.repo, clock, custody, f.vaults, payout.DefaultFeeBps)
	f.cards = NewCardService(f.repo, clock, f.ownership)
	f.custody.Set(f.treasury, 0)
	return f
}

func newFixture(t *testing.T) *fixture {
	f := newFixtureWithCustody(t, nil)
	if _, err := f.platforms.CreatePlatform(context.Background(), admin, f.treasury); err != nil {
		t.Fatalf("create platform: %v", err)
	}
	return f
}

func (f *fixture) createMarket(t *testing.T, params oracle.Params) *models.Market {
	t.Helper()
	m, err := f.markets.CreateMarket(context.Background(), creator, models.CreateMarketRequest{
		Question: "Will it happen?",
		EndTime:  f.now + 100,
		Params:   params,
	})
	if err != nil {
		t.Fatalf("create market: %v", err)
	}
	vault, _ := f.vaults.VaultAddress(m.ID)
	f.custody.Set(vault, 0)
	return m
}

func (f *fixture) wager(t *testing.T, marketID uint64, bettor string, side bool, amount uint64) *models.Bet {
	t.Helper()
	bet, err := f.markets.PlaceWager(context.Background(), marketID, bettor, side, amount, nil)
	if err != nil {
		t.Fatalf("wager %s %d: %v", bettor, amount, err)
	}
	return bet
}

func (f *fixture) vaultBalance(marketID uint64) uint64 {
	vault, _ := f.vaults.VaultAddress(marketID)
	return f.custody.Balance(vault)
}

func i64(v int64) *int64   { return &v }
func u64(v uint64) *uint64 { return &v }

func TestCreatePlatformRejectsSecondCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.platforms.CreatePlatform(ctx, "someone", f.treasury); !errors.Is(err, apperr.ErrPlatformExists) {
		t.Fatalf("expected platform exists, got %v", err)
	}
	if _, err := f.platforms.CreatePlatform(ctx, admin, "not-base58-0OIl"); !errors.Is(err, apperr.ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}
	p, err := f.platforms.GetPlatform(ctx)
	if err != nil {
		t.Fatalf("get platform: %v", err)
	}
	if p.Authority != admin || p.Treasury != f.treasury {
		t.Errorf("unexpected platform %+v", p)
	}
}

func TestCreateMarketValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.CreateMarketRequest
		wantErr error
	}{
		{"end time in the past", models.CreateMarketRequest{Question: "q", EndTime: f.now - 1}, apperr.ErrInvalidEndTime},
		{"end time now", models.CreateMarketRequest{Question: "q", EndTime: f.now}, apperr.ErrInvalidEndTime},
		{"question too long", models.CreateMarketRequest{Question: strings.Repeat("q", 101), EndTime: f.now + 10}, apperr.ErrQuestionTooLong},
		{"description too long", models.CreateMarketRequest{Question: "q", Description: strings.Repeat("d", 201), EndTime: f.now + 10}, apperr.ErrDescriptionTooLong},
		{"unknown category", models.CreateMarketRequest{Question: "q", EndTime: f.now + 10, Category: "Cooking"}, apperr.ErrInvalidCategory},
		{"incomplete oracle", models.CreateMarketRequest{Question: "q", EndTime: f.now + 10, Params: oracle.Params{DataType: oracle.DataPrice}}, apperr.ErrOracleConfigRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.markets.CreateMarket(ctx, creator, tt.req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	p, _ := f.platforms.GetPlatform(ctx)
	if p.TotalMarkets != 0 {
		t.Errorf("failed creates must not count, got %d", p.TotalMarkets)
	}

	exact := models.CreateMarketRequest{
		Question:    strings.Repeat("q", models.MaxQuestionLength),
		Description: strings.Repeat("d", models.MaxDescriptionLength),
		EndTime:     f.now + 10,
		Category:    string(models.CategoryWeather),
	}
	m1, err := f.markets.CreateMarket(ctx, creator, exact)
	if err != nil {
		t.Fatalf("bounds are inclusive: %v", err)
	}
	m2 := f.createMarket(t, oracle.Params{})
	if m1.ID != 1 || m2.ID != 2 {
		t.Errorf("expected sequential ids 1 and 2, got %d and %d", m1.ID, m2.ID)
	}
	if m1.Authority != creator || m1.Creator != creator || m2.Category != models.CategoryOther {
		t.Errorf("unexpected market fields: %+v", m1)
	}
	p, _ = f.platforms.GetPlatform(ctx)
	if p.TotalMarkets != 2 {
		t.Errorf("expected 2 markets on platform, got %d", p.TotalMarkets)
	}
}

func TestCreateMarketWithoutPlatform(t *testing.T) {
	f := newFixtureWithCustody(t, nil)
	_, err := f.markets.CreateMarket(context.Background(), creator, models.CreateMarketRequest{
		Question: "q",
		EndTime:  f.now + 10,
	})
	if !errors.Is(err, apperr.ErrPlatformNotFound) {
		t.Fatalf("expected platform not found, got %v", err)
	}
}

func TestProportionalPayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})

	f.wager(t, m.ID, "alice", true, 100)
	f.wager(t, m.ID, "bob", true, 300)
	f.wager(t, m.ID, "carol", false, 200)

	if got := f.vaultBalance(m.ID); got != 600 {
		t.Fatalf("expected 600 in vault, got %d", got)
	}
	if got := f.custody.Balance("alice"); got != openingBalance-100 {
		t.Errorf("alice should have paid 100, balance %d", got)
	}

	f.now = m.EndTime
	if _, err := f.resolver.ResolveManual(ctx, m.ID, creator, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	q, err := f.payouts.Quote(ctx, m.ID, "alice")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Hypothetical || q.TotalPool != 600 || q.PlatformFee != 12 || q.PoolAfterFee != 588 || q.Winnings != 147 {
		t.Errorf("unexpected quote %+v", q)
	}

	aliceWin, err := f.payouts.Claim(ctx, m.ID, "alice", "alice")
	if err != nil {
		t.Fatalf("alice claim: %v", err)
	}
	bobWin, err := f.payouts.Claim(ctx, m.ID, "bob", "bob")
	if err != nil {
		t.Fatalf("bob claim: %v", err)
	}
	if aliceWin != 147 || bobWin != 441 {
		t.Errorf("expected 147 and 441, got %d and %d", aliceWin, bobWin)
	}
	if _, err := f.payouts.Claim(ctx, m.ID, "carol", "carol"); !errors.Is(err, apperr.ErrLosingBet) {
		t.Errorf("expected losing bet, got %v", err)
	}

	fee, err := f.payouts.CollectFee(ctx, m.ID, admin)
	if err != nil {
		t.Fatalf("collect fee: %v", err)
	}
	if fee != 12 || f.custody.Balance(f.treasury) != 12 {
		t.Errorf("expected fee 12 in treasury, got fee=%d treasury=%d", fee, f.custody.Balance(f.treasury))
	}
	if got := f.vaultBalance(m.ID); got != 0 {
		t.Errorf("vault should be drained exactly, %d left", got)
	}

	transfers, err := f.repo.ListTransfers(ctx, m.ID)
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(transfers) != 6 {
		t.Errorf("expected 3 wagers, 2 payouts and 1 fee recorded, got %d", len(transfers))
	}
}

func TestClaimOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})
	f.wager(t, m.ID, "alice", true, 100)
	f.wager(t, m.ID, "bob", false, 100)

	if _, err := f.payouts.Claim(ctx, m.ID, "alice", "alice"); !errors.Is(err, apperr.ErrNotResolved) {
		t.Fatalf("expected not resolved, got %v", err)
	}

	f.now = m.EndTime + 1
	if _, err := f.resolver.ResolveManual(ctx, m.ID, creator, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := f.payouts.Claim(ctx, m.ID, "mallory", "alice"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized for a third party, got %v", err)
	}
	if _, err := f.payouts.Claim(ctx, m.ID, "dave", "dave"); !errors.Is(err, apperr.ErrBetNotFound) {
		t.Errorf("expected bet not found, got %v", err)
	}

	first, err := f.payouts.Claim(ctx, m.ID, "alice", "alice")
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	balance := f.custody.Balance("alice")

	if _, err := f.payouts.Claim(ctx, m.ID, "alice", "alice"); !errors.Is(err, apperr.ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
	if f.custody.Balance("alice") != balance {
		t.Errorf("second claim must not move funds")
	}
	if first != 196 {
		t.Errorf("expected floor(100*196/100)=196, got %d", first)
	}

	bet, _ := f.repo.GetBet(ctx, m.ID, "alice")
	if !bet.Claimed {
		t.Errorf("bet should be marked claimed")
	}
}

func TestEmptyWinningSideFailsEveryClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})
	f.wager(t, m.ID, "alice", false, 100)
	f.wager(t, m.ID, "bob", false, 50)

	f.now = m.EndTime
	if _, err := f.resolver.ResolveManual(ctx, m.ID, creator, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	for _, bettor := range []string{"alice", "bob"} {
		if _, err := f.payouts.Claim(ctx, m.ID, bettor, bettor); !errors.Is(err, apperr.ErrNoWinningBets) {
			t.Errorf("%s: expected no winning bets, got %v", bettor, err)
		}
	}

	// The fee is still collectable; the remainder stays in the vault.
	fee, err := f.payouts.CollectFee(ctx, m.ID, admin)
	if err != nil {
		t.Fatalf("collect fee: %v", err)
	}
	if fee != 3 || f.vaultBalance(m.ID) != 147 {
		t.Errorf("expected fee 3 and 147 stranded, got fee=%d vault=%d", fee, f.vaultBalance(m.ID))
	}
}

func TestPriceResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{
		Source:      oracle.SourcePythPrice,
		DataType:    oracle.DataPrice,
		PriceFeed:   "SOL/USD",
		TargetPrice: i64(150_000000),
	})

	if _, err := f.resolver.ResolvePrice(ctx, m.ID); !errors.Is(err, apperr.ErrNotEnded) {
		t.Fatalf("expected not ended, got %v", err)
	}

	f.now = m.EndTime + 10
	if _, err := f.resolver.ResolvePrice(ctx, m.ID); !errors.Is(err, apperr.ErrPriceNotAvailable) {
		t.Fatalf("expected price not available, got %v", err)
	}

	_ = f.feeds.Write(ctx, "SOL/USD", oracle.Observation{Value: 160_000000, ObservedAt: f.now - 61})
	if _, err := f.resolver.ResolvePrice(ctx, m.ID); !errors.Is(err, apperr.ErrStaleData) {
		t.Fatalf("expected stale data, got %v", err)
	}
	stored, _ := f.repo.GetMarket(ctx, m.ID)
	if stored.Resolved || stored.Outcome != nil {
		t.Fatalf("stale read must leave the market untouched")
	}

	_ = f.feeds.Write(ctx, "SOL/USD", oracle.Observation{Value: 160_000000, ObservedAt: f.now - 60})
	resolved, err := f.resolver.ResolvePrice(ctx, m.ID)
	if err != nil {
		t.Fatalf("resolve price: %v", err)
	}
	if resolved.Outcome == nil || !*resolved.Outcome {
		t.Errorf("expected YES")
	}

	stored, _ = f.repo.GetMarket(ctx, m.ID)
	price, ok := stored.Oracle.Config.(oracle.Price)
	if !ok || price.StrikePrice == nil || *price.StrikePrice != 160_000000 {
		t.Errorf("strike not persisted: %+v", stored.Oracle.Config)
	}
	if stored.ResolvedAt == nil || *stored.ResolvedAt != f.now {
		t.Errorf("resolved_at not recorded")
	}
}

func TestResolutionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	manual := f.createMarket(t, oracle.Params{})
	weather := f.createMarket(t, oracle.Params{
		DataType:      oracle.DataWeather,
		Location:      "NYC",
		WeatherMetric: oracle.WeatherTemperature,
		TargetValue:   i64(30),
	})

	if _, err := f.resolver.ResolveManual(ctx, 99, creator, true); !errors.Is(err, apperr.ErrMarketNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	// Path is checked before the deadline.
	if _, err := f.resolver.ResolvePrice(ctx, manual.ID); !errors.Is(err, apperr.ErrWrongResolutionPath) {
		t.Errorf("expected wrong path, got %v", err)
	}
	if _, err := f.resolver.ResolveManual(ctx, weather.ID, creator, true); !errors.Is(err, apperr.ErrWrongResolutionPath) {
		t.Errorf("expected wrong path, got %v", err)
	}
	if _, err := f.resolver.ResolveManual(ctx, manual.ID, creator, true); !errors.Is(err, apperr.ErrNotEnded) {
		t.Errorf("expected not ended, got %v", err)
	}

	f.now = manual.EndTime
	if _, err := f.resolver.ResolveManual(ctx, manual.ID, "mallory", true); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	if _, err := f.resolver.ResolveManual(ctx, manual.ID, creator, false); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := f.resolver.ResolveManual(ctx, manual.ID, creator, true); !errors.Is(err, apperr.ErrAlreadyResolved) {
		t.Errorf("expected already resolved, got %v", err)
	}
	stored, _ := f.repo.GetMarket(ctx, manual.ID)
	if stored.Outcome == nil || *stored.Outcome {
		t.Errorf("outcome must stay NO after a rejected second resolution")
	}

	got, err := f.resolver.ResolveWeather(ctx, weather.ID, creator, 29)
	if err != nil {
		t.Fatalf("resolve weather: %v", err)
	}
	if *got.Outcome {
		t.Errorf("29 below target 30 should resolve NO")
	}
	stored, _ = f.repo.GetMarket(ctx, weather.ID)
	w := stored.Oracle.Config.(oracle.Weather)
	if w.RecordedValue == nil || *w.RecordedValue != 29 {
		t.Errorf("recorded value not persisted")
	}
}

func TestSportsAndSocialResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sports := f.createMarket(t, oracle.Params{
		Source:       oracle.SourceChainlinkSports,
		DataType:     oracle.DataSportsScore,
		GameID:       "NBA-42",
		TargetSpread: func() *int32 { v := int32(5); return &v }(),
	})
	social := f.createMarket(t, oracle.Params{
		DataType:       oracle.DataSocial,
		DataIdentifier: "@acct",
		MetricType:     oracle.MetricFollowerCount,
		Threshold:      u64(1000),
	})
	f.now = sports.EndTime

	m, err := f.resolver.ResolveSports(ctx, sports.ID, creator, 110, 104)
	if err != nil {
		t.Fatalf("resolve sports: %v", err)
	}
	if !*m.Outcome {
		t.Errorf("spread of 6 covers 5")
	}
	stored, _ := f.repo.GetMarket(ctx, sports.ID)
	s := stored.Oracle.Config.(oracle.Sports)
	if s.TeamAScore == nil || *s.TeamAScore != 110 || *s.TeamBScore != 104 || s.GameID != "NBA-42" {
		t.Errorf("scores not persisted: %+v", s)
	}

	if _, err := f.resolver.ResolveSocial(ctx, social.ID, "mallory", 5000); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	m, err = f.resolver.ResolveSocial(ctx, social.ID, creator, 1000)
	if err != nil {
		t.Fatalf("resolve social: %v", err)
	}
	if !*m.Outcome {
		t.Errorf("actual equal to threshold should resolve YES")
	}
}

func TestWagerGuardsAndAccumulation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})

	if _, err := f.markets.PlaceWager(ctx, m.ID, "alice", true, 0, nil); !errors.Is(err, apperr.ErrInvalidAmount) {
		t.Errorf("expected invalid amount, got %v", err)
	}
	if _, err := f.markets.PlaceWager(ctx, 42, "alice", true, 10, nil); !errors.Is(err, apperr.ErrMarketNotFound) {
		t.Errorf("expected market not found, got %v", err)
	}

	f.wager(t, m.ID, "alice", true, 40)
	bet := f.wager(t, m.ID, "alice", false, 60)
	if bet.Amount != 100 || bet.Prediction {
		t.Errorf("expected accumulated 100 on NO, got %d on %v", bet.Amount, bet.Prediction)
	}
	if bet.CardMultiplier != models.MultiplierScale {
		t.Errorf("plain bets carry the unit multiplier, got %d", bet.CardMultiplier)
	}

	stored, _ := f.repo.GetMarket(ctx, m.ID)
	if stored.TotalYesAmount != 40 || stored.TotalNoAmount != 60 {
		t.Errorf("pools keep each wager on its own side, got yes=%d no=%d", stored.TotalYesAmount, stored.TotalNoAmount)
	}
	p, _ := f.platforms.GetPlatform(ctx)
	if p.TotalVolume != 100 {
		t.Errorf("expected volume 100, got %d", p.TotalVolume)
	}
	bets, _ := f.markets.ListMarketBets(ctx, m.ID)
	if len(bets) != 1 {
		t.Errorf("one bet per bettor, got %d", len(bets))
	}

	f.now = m.EndTime
	if _, err := f.markets.PlaceWager(ctx, m.ID, "alice", true, 10, nil); !errors.Is(err, apperr.ErrMarketEnded) {
		t.Errorf("expected market ended at the deadline, got %v", err)
	}
	if _, err := f.resolver.ResolveManual(ctx, m.ID, creator, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := f.markets.PlaceWager(ctx, m.ID, "alice", true, 10, nil); !errors.Is(err, apperr.ErrAlreadyResolved) {
		t.Errorf("expected already resolved, got %v", err)
	}

	view, err := f.markets.GetMarket(ctx, m.ID)
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if view.State != models.MarketStateResolved {
		t.Errorf("expected RESOLVED, got %s", view.State)
	}
}

func TestWagerRollsBackWhenCustodyFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})
	f.custody.Set("poor", 10)

	_, err := f.markets.PlaceWager(ctx, m.ID, "poor", true, 50, nil)
	if !errors.Is(err, apperr.ErrCustodyFailed) {
		t.Fatalf("expected custody failure, got %v", err)
	}
	if kind, _ := apperr.KindOf(err); kind != apperr.KindExternal {
		t.Errorf("expected external kind, got %s", kind)
	}

	stored, _ := f.repo.GetMarket(ctx, m.ID)
	if stored.TotalYesAmount != 0 {
		t.Errorf("pool must be rolled back, got %d", stored.TotalYesAmount)
	}
	if _, err := f.repo.GetBet(ctx, m.ID, "poor"); !errors.Is(err, apperr.ErrBetNotFound) {
		t.Errorf("bet must not be created, got %v", err)
	}
	p, _ := f.platforms.GetPlatform(ctx)
	if p.TotalVolume != 0 {
		t.Errorf("volume must be rolled back, got %d", p.TotalVolume)
	}
	if f.custody.Balance("poor") != 10 {
		t.Errorf("custody must not move funds")
	}
}

func TestWagerOverflowFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})
	f.custody.Set("whale", ledger.MaxAmount)

	// The largest storable pool is accepted and persisted.
	f.wager(t, m.ID, "whale", true, ledger.MaxAmount)
	stored, err := f.repo.GetMarket(ctx, m.ID)
	if err != nil || stored.TotalYesAmount != ledger.MaxAmount {
		t.Fatalf("max pool not stored: %+v %v", stored, err)
	}

	// One more unit on the other side can no longer be summed.
	_, err = f.markets.PlaceWager(ctx, m.ID, "alice", false, 1, nil)
	if !errors.Is(err, apperr.ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if kind, ok := apperr.KindOf(err); !ok || kind != apperr.KindEconomic {
		t.Errorf("overflow must surface as an economic error, got %v", kind)
	}
	stored, _ = f.repo.GetMarket(ctx, m.ID)
	if stored.TotalNoAmount != 0 {
		t.Errorf("no pool must be unchanged, got %d", stored.TotalNoAmount)
	}
	if _, err := f.repo.GetBet(ctx, m.ID, "alice"); !errors.Is(err, apperr.ErrBetNotFound) {
		t.Errorf("bet must not be created, got %v", err)
	}

	// A single stake above the storable range fails before touching storage.
	other := f.createMarket(t, oracle.Params{})
	f.custody.Set("whale", ^uint64(0))
	if _, err := f.markets.PlaceWager(ctx, other.ID, "whale", true, ledger.MaxAmount+1, nil); !errors.Is(err, apperr.ErrOverflow) {
		t.Errorf("expected overflow for an unstorable stake, got %v", err)
	}
}

func TestConcurrentWagersSerialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bettor := []string{"alice", "bob", "carol", "dave"}[i%4]
			_, err := f.markets.PlaceWager(ctx, m.ID, bettor, i%2 == 0, uint64(i+1), nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("wager failed: %v", err)
		}
	}

	imbalance, err := f.markets.Reconcile(ctx, m.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !imbalance.Balanced || imbalance.PoolTotal != 210 || imbalance.BetCount != 4 {
		t.Errorf("expected balanced 210 over 4 bets, got %+v", imbalance)
	}
	if f.vaultBalance(m.ID) != 210 {
		t.Errorf("vault should hold 210, got %d", f.vaultBalance(m.ID))
	}
}

func TestWagerWithCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})

	card, err := f.cards.MintCard(ctx, "alice", models.MintCardRequest{Mint: "mint-1", Power: 5, Rarity: 2, Multiplier: 1500})
	if err != nil {
		t.Fatalf("mint card: %v", err)
	}
	mint := card.Mint

	if held, _ := f.ownership.HasSingleUnit(ctx, "alice", mint); !held {
		t.Fatalf("minting must register the holder")
	}
	// The token moved to another wallet while the card record still names alice.
	f.ownership.Grant("carol", mint)
	if _, err := f.markets.PlaceWager(ctx, m.ID, "alice", true, 10, &mint); !errors.Is(err, apperr.ErrNotCardOwner) {
		t.Fatalf("token not held, expected not card owner, got %v", err)
	}
	f.ownership.Grant("alice", mint)

	if _, err := f.markets.PlaceWager(ctx, m.ID, "bob", true, 10, &mint); !errors.Is(err, apperr.ErrNotCardOwner) {
		t.Errorf("expected not card owner for bob, got %v", err)
	}
	missing := "mint-404"
	if _, err := f.markets.PlaceWager(ctx, m.ID, "alice", true, 10, &missing); !errors.Is(err, apperr.ErrCardNotFound) {
		t.Errorf("expected card not found, got %v", err)
	}

	bet, err := f.markets.PlaceWager(ctx, m.ID, "alice", true, 10, &mint)
	if err != nil {
		t.Fatalf("card wager: %v", err)
	}
	if bet.CardMint == nil || *bet.CardMint != mint || bet.CardMultiplier != 1500 {
		t.Errorf("card snapshot missing: %+v", bet)
	}

	bet = f.wager(t, m.ID, "alice", true, 10)
	if bet.CardMint == nil || bet.CardMultiplier != 1500 {
		t.Errorf("a plain top-up keeps the card snapshot")
	}

	// The multiplier does not change the payout.
	f.wager(t, m.ID, "bob", false, 20)
	f.now = m.EndTime
	if _, err := f.resolver.ResolveManual(ctx, m.ID, creator, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	won, err := f.payouts.Claim(ctx, m.ID, "alice", "alice")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	// fee floor(40*2%) is 0, so the unit share of the pool is paid in full.
	if won != 40 {
		t.Errorf("expected 40 regardless of the 1.5x card, got %d", won)
	}
}

func TestCardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invalid := []models.MintCardRequest{
		{Mint: "m", Power: 0, Multiplier: 1000},
		{Mint: "m", Power: 11, Multiplier: 1000},
		{Mint: "m", Power: 1, Rarity: 5, Multiplier: 1000},
		{Mint: "m", Power: 1, Multiplier: 0},
		{Mint: "m", Power: 1, Multiplier: ledger.MaxAmount + 1},
	}
	for _, req := range invalid {
		if _, err := f.cards.MintCard(ctx, "alice", req); !errors.Is(err, apperr.ErrInvalidCard) {
			t.Errorf("%+v: expected invalid card, got %v", req, err)
		}
	}

	if _, err := f.cards.MintCard(ctx, "alice", models.MintCardRequest{Mint: "m", Power: 10, Rarity: 4, Multiplier: 1}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := f.cards.MintCard(ctx, "bob", models.MintCardRequest{Mint: "m", Power: 1, Multiplier: 1}); !errors.Is(err, apperr.ErrCardExists) {
		t.Errorf("expected card exists, got %v", err)
	}

	f.ownership.Grant("carol", "m")
	if _, err := f.cards.UpdateCardStats(ctx, "m", "alice", true); !errors.Is(err, apperr.ErrNotCardOwner) {
		t.Errorf("token not held, expected not card owner, got %v", err)
	}
	f.ownership.Grant("alice", "m")
	if _, err := f.cards.UpdateCardStats(ctx, "m", "bob", true); !errors.Is(err, apperr.ErrNotCardOwner) {
		t.Errorf("expected not card owner, got %v", err)
	}

	f.cards.UpdateCardStats(ctx, "m", "alice", true)
	f.cards.UpdateCardStats(ctx, "m", "alice", true)
	card, err := f.cards.UpdateCardStats(ctx, "m", "alice", false)
	if err != nil {
		t.Fatalf("update stats: %v", err)
	}
	if card.Wins != 2 || card.Losses != 1 {
		t.Errorf("expected 2-1, got %d-%d", card.Wins, card.Losses)
	}

	cards, _ := f.cards.ListCards(ctx, "alice")
	if len(cards) != 1 || cards[0].Wins != 2 {
		t.Errorf("stats not persisted: %+v", cards)
	}
}

func TestCollectFeeGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})
	f.wager(t, m.ID, "alice", true, 1000)

	if _, err := f.payouts.CollectFee(ctx, m.ID, admin); !errors.Is(err, apperr.ErrNotResolved) {
		t.Errorf("expected not resolved, got %v", err)
	}
	f.now = m.EndTime
	f.resolver.ResolveManual(ctx, m.ID, creator, true)

	// Market authority is not the fee authority.
	if _, err := f.payouts.CollectFee(ctx, m.ID, creator); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	fee, err := f.payouts.CollectFee(ctx, m.ID, admin)
	if err != nil || fee != 20 {
		t.Fatalf("expected fee 20, got %d (%v)", fee, err)
	}
}

func TestQuoteBeforeResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMarket(t, oracle.Params{})
	f.wager(t, m.ID, "alice", false, 100)
	f.wager(t, m.ID, "bob", true, 300)

	q, err := f.payouts.Quote(ctx, m.ID, "alice")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !q.Hypothetical || q.Outcome || q.WinningPool != 100 || q.Winnings != 392 {
		t.Errorf("unexpected quote %+v", q)
	}
	stored, _ := f.repo.GetMarket(ctx, m.ID)
	if stored.Resolved {
		t.Errorf("quote must not resolve the market")
	}
}

// echoCustody returns the deposit signature as the receipt, like on-chain verification does.
type echoCustody struct{}

func (echoCustody) Transfer(ctx context.Context, from, to string, amount uint64) (string, error) {
	if sig, ok := blockchain.DepositSignature(ctx); ok {
		return sig, nil
	}
	return "release-" + from + "-" + to, nil
}

func TestDepositSignatureCannotBeReplayed(t *testing.T) {
	f := newFixtureWithCustody(t, echoCustody{})
	ctx := context.Background()
	if _, err := f.platforms.CreatePlatform(ctx, admin, f.treasury); err != nil {
		t.Fatalf("create platform: %v", err)
	}
	m := f.createMarket(t, oracle.Params{})

	depositCtx := blockchain.WithDepositSignature(ctx, "sig-1")
	if _, err := f.markets.PlaceWager(depositCtx, m.ID, "alice", true, 10, nil); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	_, err := f.markets.PlaceWager(depositCtx, m.ID, "alice", true, 10, nil)
	if !errors.Is(err, apperr.ErrCustodyFailed) {
		t.Fatalf("expected replay to fail, got %v", err)
	}
	bet, _ := f.repo.GetBet(ctx, m.ID, "alice")
	if bet.Amount != 10 {
		t.Errorf("replayed deposit must not be credited, stake %d", bet.Amount)
	}
}
