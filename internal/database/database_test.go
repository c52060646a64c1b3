package database

import (
	"testing"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	if err := ConnectSQLite(":memory:"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, table := range []string{"platforms", "markets", "bets", "cards", "transfers"} {
		if !GetDB().Migrator().HasTable(table) {
			t.Errorf("expected table %s", table)
		}
	}
	if !GetDB().Migrator().HasIndex("bets", "idx_bets_market_bettor") {
		t.Errorf("expected unique (market, bettor) index")
	}
}
