package service

import (
	"context"
	"testing"
	"time"

	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"

	"github.com/shopspring/decimal"
)

func TestSoldTrend(t *testing.T) {
	tests := []struct {
		cur, prev int64
		want      int
	}{
		{cur: 15, prev: 10, want: 50},
		{cur: 5, prev: 10, want: -50},
		{cur: 1, prev: 3, want: -67},
		{cur: 4, prev: 0, want: 100},
		{cur: 0, prev: 0, want: 0},
	}
	for _, tt := range tests {
		if got := SoldTrend(tt.cur, tt.prev); got != tt.want {
			t.Errorf("SoldTrend(%d, %d) = %d, want %d", tt.cur, tt.prev, got, tt.want)
		}
	}
}

func TestDashboardStats(t *testing.T) {
	inv := newMemInventory()
	inv.addOffer(model.Offer{PharmacyID: pharmacyA, Quantity: 3, Price: decimal.NewFromFloat(2.5)})
	sold := inv.addOffer(model.Offer{PharmacyID: pharmacyA, Quantity: 4, Price: decimal.NewFromInt(10)})
	inv.addRequest(model.Request{PharmacyID: pharmacyA, Quantity: 1})
	bought := inv.addRequest(model.Request{PharmacyID: pharmacyA, Quantity: 6})

	ctx := context.Background()
	if _, err := inv.Consume(ctx, consumeAll(sold.ID)); err != nil {
		t.Fatal(err)
	}
	// request completions are not offer sales
	if _, err := inv.Consume(ctx, repository.ConsumeParams{Kind: model.KindRequest, ItemID: bought.ID, Full: true, Action: model.ActionPurchased}); err != nil {
		t.Fatal(err)
	}

	svc := NewDashboardService(inv, &memArchive{inv: inv}, newMemRatings(), quietLogger())
	stats, err := svc.Stats(ctx, model.Session{PharmacyID: pharmacyA})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.OfferCount != 1 || stats.RequestCount != 1 {
		t.Fatalf("counts = %d/%d", stats.OfferCount, stats.RequestCount)
	}
	if !stats.TotalValue.Equal(decimal.NewFromFloat(7.5)) {
		t.Fatalf("total value = %s", stats.TotalValue)
	}
	if stats.SuccessScore != 2 || stats.SoldQuantity != 4 || stats.SoldTrend != 100 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(stats.Recent) != 4 {
		t.Fatalf("recent = %+v", stats.Recent)
	}
}

func TestRecentActivityNewestFirst(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	offers := []model.Offer{{BaseModel: model.BaseModel{CreatedAt: base}}}
	requests := []model.Request{{BaseModel: model.BaseModel{CreatedAt: base.Add(2 * time.Hour)}}}
	archived := []model.ArchiveRecord{{CreatedAt: base.Add(time.Hour)}}

	got := RecentActivity(offers, requests, archived, 2)
	if len(got) != 2 || got[0].Kind != "request" || got[1].Kind != "archive" {
		t.Fatalf("activity = %+v", got)
	}
}

func TestRecentActivityLabels(t *testing.T) {
	archived := []model.ArchiveRecord{
		{ID: 1, ActionType: model.ActionTransferAr},
		{ID: 2, ActionType: model.ActionPurchased},
		{ID: 3, ActionType: model.ActionMarketplaceSale},
	}
	got := RecentActivity([]model.Offer{{}}, nil, archived, 10)

	want := map[string]int{"New Offer": 1, "Offer Sold/Transferred": 1, "Request Completed": 1, "Item Archived": 1}
	seen := map[string]int{}
	for _, a := range got {
		seen[a.Label]++
	}
	for label, n := range want {
		if seen[label] != n {
			t.Errorf("label %q seen %d times, want %d (all: %v)", label, seen[label], n, seen)
		}
	}
}
