package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type DashboardService interface {
	Stats(ctx context.Context, s model.Session) (*DashboardStats, error)
}

type DashboardStats struct {
	OfferCount    int64                   `json:"offer_count"`
	RequestCount  int64                   `json:"request_count"`
	SuccessScore  int64                   `json:"success_score"`
	AverageRating float64                 `json:"average_rating"`
	ReviewCount   int64                   `json:"review_count"`
	TotalValue    decimal.Decimal         `json:"total_value"`
	SoldQuantity  int64                   `json:"sold_quantity"`
	SoldTrend     int                     `json:"sold_trend"`
	Activity      []repository.DailyCount `json:"activity"`
	Recent        []Activity              `json:"recent_activity"`
}

// Activity is one line of the dashboard's recent activity feed.
type Activity struct {
	Kind        string    `json:"kind"`
	Label       string    `json:"label"`
	EnglishName string    `json:"english_name"`
	ArabicName  string    `json:"arabic_name"`
	Quantity    int       `json:"quantity"`
	Action      string    `json:"action,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

const recentActivityLimit = 10

// SoldTrend is the percentage change from prev to cur, rounded. Growth from nothing counts as 100.
func SoldTrend(cur, prev int64) int {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(cur-prev) / float64(prev) * 100))
}

type dashboardService struct {
	inventory repository.InventoryRepository
	archive   repository.ArchiveRepository
	ratings   repository.RatingRepository
	log       *logrus.Logger
	now       func() time.Time
}

func NewDashboardService(inventory repository.InventoryRepository, archive repository.ArchiveRepository, ratings repository.RatingRepository, log *logrus.Logger) DashboardService {
	return &dashboardService{inventory: inventory, archive: archive, ratings: ratings, log: log, now: time.Now}
}

func (s *dashboardService) Stats(ctx context.Context, sess model.Session) (*DashboardStats, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.Service.Stats")
	defer span.End()

	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}
	id := sess.PharmacyID

	offers, err := s.inventory.ListOffersByPharmacy(ctx, id)
	if err != nil {
		return nil, recordErr(span, err)
	}
	requests, err := s.inventory.ListRequestsByPharmacy(ctx, id)
	if err != nil {
		return nil, recordErr(span, err)
	}

	stats := &DashboardStats{
		OfferCount:   int64(len(offers)),
		RequestCount: int64(len(requests)),
		TotalValue:   decimal.Zero,
		Activity:     []repository.DailyCount{},
	}
	for i := range offers {
		stats.TotalValue = stats.TotalValue.Add(offers[i].Value())
	}

	if stats.SuccessScore, err = s.archive.CountByPharmacy(ctx, id); err != nil {
		logger.LogError(s.log, "dashboard", "Stats", "success score", id, err)
	}
	if aggs, err := s.ratings.Aggregate(ctx, []int64{id}); err != nil {
		logger.LogError(s.log, "dashboard", "Stats", "ratings", id, err)
	} else {
		stats.AverageRating = aggs[id].Average
		stats.ReviewCount = aggs[id].Count
	}

	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	sales := model.OfferSaleActions()
	if stats.SoldQuantity, err = s.archive.SoldQuantity(ctx, id, sales, time.Time{}, time.Time{}); err != nil {
		logger.LogError(s.log, "dashboard", "Stats", "sold quantity", id, err)
	}
	cur, errCur := s.archive.SoldQuantity(ctx, id, sales, weekAgo, now)
	prev, errPrev := s.archive.SoldQuantity(ctx, id, sales, twoWeeksAgo, weekAgo)
	if errCur == nil && errPrev == nil {
		stats.SoldTrend = SoldTrend(cur, prev)
	}

	if daily, err := s.archive.DailyCounts(ctx, id, weekAgo, now); err != nil {
		logger.LogError(s.log, "dashboard", "Stats", "daily counts", id, err)
	} else if daily != nil {
		stats.Activity = daily
	}

	archived, err := s.archive.Recent(ctx, id, recentActivityLimit)
	if err != nil {
		logger.LogError(s.log, "dashboard", "Stats", "recent archive", id, err)
	}
	stats.Recent = RecentActivity(offers, requests, archived, recentActivityLimit)
	return stats, nil
}

// RecentActivity merges listings and archive entries, newest first.
func activityLabel(a model.ArchiveRecord) string {
	switch {
	case model.IsOfferSale(a.ActionType):
		return "Offer Sold/Transferred"
	case model.IsRequestCompletion(a.ActionType):
		return "Request Completed"
	}
	return "Item Archived"
}

func RecentActivity(offers []model.Offer, requests []model.Request, archived []model.ArchiveRecord, limit int) []Activity {
	out := make([]Activity, 0, len(offers)+len(requests)+len(archived))
	for _, o := range offers {
		out = append(out, Activity{Kind: "offer", Label: "New Offer", EnglishName: o.EnglishName, ArabicName: o.ArabicName, Quantity: o.Quantity, CreatedAt: o.CreatedAt})
	}
	for _, r := range requests {
		out = append(out, Activity{Kind: "request", Label: "New Request", EnglishName: r.EnglishName, ArabicName: r.ArabicName, Quantity: r.Quantity, CreatedAt: r.CreatedAt})
	}
	for _, a := range archived {
		out = append(out, Activity{Kind: "archive", Label: activityLabel(a), EnglishName: a.EnglishName, ArabicName: a.ArabicName, Quantity: a.Quantity, Action: string(a.ActionType), CreatedAt: a.CreatedAt})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
