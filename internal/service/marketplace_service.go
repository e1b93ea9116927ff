package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go-pharma-exchange/internal/cache"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/internal/ws"
	"go-pharma-exchange/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type MarketplaceService interface {
	Listings(ctx context.Context, s model.Session, kind model.ItemKind, f Filters) ([]Listing, error)
	Transact(ctx context.Context, s model.Session, kind model.ItemKind, id uint, qty int) (*TransactResult, error)
}

// Listing is one open offer or request as shown in the marketplace.
type Listing struct {
	Kind        model.ItemKind         `json:"kind"`
	ID          uint                   `json:"id"`
	PharmacyID  int64                  `json:"pharmacy_id"`
	EnglishName string                 `json:"english_name"`
	ArabicName  string                 `json:"arabic_name"`
	Barcode     string                 `json:"barcode"`
	Quantity    int                    `json:"quantity"`
	ExpiryDate  string                 `json:"expiry_date,omitempty"`
	Price       *decimal.Decimal       `json:"price,omitempty"`
	Discount    int                    `json:"discount"`
	NearExpiry  bool                   `json:"near_expiry"`
	CreatedAt   time.Time              `json:"created_at"`
	Pharmacy    *model.PharmacyProfile `json:"pharmacy,omitempty"`
	Reputation  model.Reputation       `json:"reputation"`
	Distance    int                    `json:"distance"`
}

// Filters compose with AND. Empty fields match everything.
type Filters struct {
	Query       string
	City        string
	MinDiscount int
}

// Match applies the text, city and discount filters to one listing.
// English name and barcode match case-insensitively; Arabic name as a plain substring.
func (f Filters) Match(l Listing) bool {
	if q := strings.TrimSpace(f.Query); q != "" {
		lq := strings.ToLower(q)
		if !strings.Contains(strings.ToLower(l.EnglishName), lq) &&
			!strings.Contains(l.ArabicName, q) &&
			!strings.Contains(strings.ToLower(l.Barcode), lq) {
			return false
		}
	}
	if f.City != "" {
		city := ""
		if l.Pharmacy != nil {
			city = l.Pharmacy.City
		}
		if city != f.City {
			return false
		}
	}
	if f.MinDiscount > 0 && l.Kind == model.KindOffer && l.Discount < f.MinDiscount {
		return false
	}
	return true
}

// CityDistance is 0 within the viewer's city and 1 elsewhere.
func CityDistance(viewerCity, city string) int {
	if viewerCity != "" && strings.EqualFold(strings.TrimSpace(viewerCity), strings.TrimSpace(city)) {
		return 0
	}
	return 1
}

// SortByProximity puts same-city listings first and keeps the incoming order otherwise.
func SortByProximity(listings []Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Distance < listings[j].Distance
	})
}

type RatingPrompt struct {
	ToPharmacyID    int64          `json:"to_pharmacy_id"`
	RelatedItemKind model.ItemKind `json:"related_item_kind"`
	RelatedItemID   uint           `json:"related_item_id"`
	PharmacyName    string         `json:"pharmacy_name,omitempty"`
}

type TransactResult struct {
	*repository.ConsumeResult
	RatingPrompt RatingPrompt `json:"rating_prompt"`
}

type marketplaceService struct {
	inventory  repository.InventoryRepository
	pharmacies repository.PharmacyRepository
	reputation *reputationLoader
	notify     Notifier
	log        *logrus.Logger
	now        func() time.Time
}

func NewMarketplaceService(
	inventory repository.InventoryRepository,
	pharmacies repository.PharmacyRepository,
	ratings repository.RatingRepository,
	archive repository.ArchiveRepository,
	reputation cache.ReputationCache,
	notify Notifier,
	log *logrus.Logger,
) MarketplaceService {
	return &marketplaceService{
		inventory:  inventory,
		pharmacies: pharmacies,
		reputation: newReputationLoader(ratings, archive, reputation, log),
		notify:     notifierOrNop(notify),
		log:        log,
		now:        time.Now,
	}
}

func (s *marketplaceService) Listings(ctx context.Context, sess model.Session, kind model.ItemKind, f Filters) ([]Listing, error) {
	ctx, span := tracer.Start(ctx, "Marketplace.Service.Listings")
	defer span.End()

	var listings []Listing
	now := s.now()
	switch kind {
	case model.KindOffer:
		offers, err := s.inventory.ListOpenOffers(ctx, 0)
		if err != nil {
			return nil, recordErr(span, err)
		}
		for i := range offers {
			listings = append(listings, offerListing(&offers[i], now))
		}
	case model.KindRequest:
		requests, err := s.inventory.ListOpenRequests(ctx, 0)
		if err != nil {
			return nil, recordErr(span, err)
		}
		for i := range requests {
			listings = append(listings, requestListing(&requests[i]))
		}
	default:
		return nil, model.ErrInvalidItemKind
	}

	filtered := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l) {
			filtered = append(filtered, l)
		}
	}

	ids := make([]int64, 0, len(filtered))
	for _, l := range filtered {
		ids = append(ids, l.PharmacyID)
	}
	reps := s.reputation.Load(ctx, ids)

	viewerCity := s.viewerCity(ctx, sess)
	for i := range filtered {
		filtered[i].Reputation = reps[filtered[i].PharmacyID]
		city := ""
		if filtered[i].Pharmacy != nil {
			city = filtered[i].Pharmacy.City
		}
		filtered[i].Distance = CityDistance(viewerCity, city)
	}
	SortByProximity(filtered)
	return filtered, nil
}

func (s *marketplaceService) viewerCity(ctx context.Context, sess model.Session) string {
	if !sess.IsPharmacy() {
		return ""
	}
	p, err := s.pharmacies.FindByID(ctx, sess.PharmacyID)
	if err != nil {
		return ""
	}
	return p.City
}

// Transact consumes qty units of another pharmacy's listing. The archive row belongs to the lister
// and records the session pharmacy as counterparty.
func (s *marketplaceService) Transact(ctx context.Context, sess model.Session, kind model.ItemKind, id uint, qty int) (*TransactResult, error) {
	ctx, span := tracer.Start(ctx, "Marketplace.Service.Transact")
	defer span.End()

	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}
	counterparty := sess.PharmacyID

	res, err := s.inventory.Consume(ctx, repository.ConsumeParams{
		Kind:           kind,
		ItemID:         id,
		Quantity:       qty,
		Action:         model.MarketplaceAction(kind),
		CounterpartyID: &counterparty,
		Authorize: func(item model.InventoryItem) error {
			if item.OwnerID() == sess.PharmacyID {
				return ErrOwnListing
			}
			return nil
		},
	})
	if err != nil {
		return nil, recordErr(span, notFound(err))
	}

	owner := res.Archive.PharmacyID
	s.reputation.Invalidate(ctx, owner)

	prompt := RatingPrompt{ToPharmacyID: owner, RelatedItemKind: kind, RelatedItemID: id}
	if p, err := s.pharmacies.FindByID(ctx, owner); err == nil {
		prompt.PharmacyName = p.Name
	}

	s.notify.Publish(ws.Event{
		Type:   EventMarketplaceUpdate,
		Action: string(kind) + "_transacted",
		Data:   res,
	})
	return &TransactResult{ConsumeResult: res, RatingPrompt: prompt}, nil
}

func offerListing(o *model.Offer, now time.Time) Listing {
	price := o.Price
	l := Listing{
		Kind:        model.KindOffer,
		ID:          o.ID,
		PharmacyID:  o.PharmacyID,
		EnglishName: o.EnglishName,
		ArabicName:  o.ArabicName,
		Barcode:     o.Barcode,
		Quantity:    o.Quantity,
		ExpiryDate:  o.ExpiryDate,
		Price:       &price,
		Discount:    o.Discount,
		NearExpiry:  model.IsNearExpiry(o.ExpiryDate, now),
		CreatedAt:   o.CreatedAt,
	}
	if o.Pharmacy != nil {
		p := o.Pharmacy.ToProfile()
		l.Pharmacy = &p
	}
	return l
}

func requestListing(r *model.Request) Listing {
	l := Listing{
		Kind:        model.KindRequest,
		ID:          r.ID,
		PharmacyID:  r.PharmacyID,
		EnglishName: r.EnglishName,
		ArabicName:  r.ArabicName,
		Barcode:     r.Barcode,
		Quantity:    r.Quantity,
		CreatedAt:   r.CreatedAt,
	}
	if r.Pharmacy != nil {
		p := r.Pharmacy.ToProfile()
		l.Pharmacy = &p
	}
	return l
}

// reputationLoader reads reputations through the cache and rebuilds misses from ratings and archive counts.
type reputationLoader struct {
	ratings repository.RatingRepository
	archive repository.ArchiveRepository
	cache   cache.ReputationCache
	log     *logrus.Logger
}

func newReputationLoader(ratings repository.RatingRepository, archive repository.ArchiveRepository, c cache.ReputationCache, log *logrus.Logger) *reputationLoader {
	return &reputationLoader{ratings: ratings, archive: archive, cache: c, log: log}
}

// Load never fails; pharmacies whose reputation cannot be computed get a zero value.
func (r *reputationLoader) Load(ctx context.Context, ids []int64) map[int64]model.Reputation {
	ids = uniqueIDs(ids)
	out := make(map[int64]model.Reputation, len(ids))
	if len(ids) == 0 {
		return out
	}

	found, missing, err := r.cache.Get(ctx, ids)
	if err != nil {
		logger.LogError(r.log, "reputation", "Load", "read cache", ids, err)
		missing = ids
	}
	for id, rep := range found {
		out[id] = rep
	}
	if len(missing) == 0 {
		return out
	}

	aggs, err := r.ratings.Aggregate(ctx, missing)
	if err != nil {
		logger.LogError(r.log, "reputation", "Load", "aggregate ratings", missing, err)
		return out
	}
	scores, err := r.archive.CountByPharmacies(ctx, missing)
	if err != nil {
		logger.LogError(r.log, "reputation", "Load", "count archive", missing, err)
		return out
	}

	fresh := make(map[int64]model.Reputation, len(missing))
	for _, id := range missing {
		agg := aggs[id]
		fresh[id] = model.NewReputation(agg.Average, agg.Count, scores[id])
		out[id] = fresh[id]
	}
	if err := r.cache.Set(ctx, fresh); err != nil {
		logger.LogError(r.log, "reputation", "Load", "write cache", missing, err)
	}
	return out
}

func (r *reputationLoader) Invalidate(ctx context.Context, ids ...int64) {
	if err := r.cache.Invalidate(ctx, ids...); err != nil {
		logger.LogError(r.log, "reputation", "Invalidate", "drop cache", ids, err)
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
