package service

import (
	"context"
	"errors"
	"strings"

	"go-pharma-exchange/internal/cache"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/internal/ws"
	"go-pharma-exchange/pkg/logger"
	"go-pharma-exchange/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	adminListLimit = 50
	topDrugsLimit  = 5
)

// DefaultTerms is seeded into legal_content when no terms exist yet.
const DefaultTerms = "By registering, the pharmacy agrees to list only genuine, unexpired stock and to complete agreed exchanges in good faith."

type AdminService interface {
	Stats(ctx context.Context) *AdminStats

	ListPending(ctx context.Context) ([]model.PendingItem, error)
	ApprovePending(ctx context.Context, id uint) (*model.CatalogDrug, error)
	RejectPending(ctx context.Context, id uint) error

	ListPharmacies(ctx context.Context) ([]PharmacySummary, error)
	ToggleBlacklist(ctx context.Context, pharmacyID int64) (model.AccountStatus, error)
	DeletePharmacy(ctx context.Context, pharmacyID int64, confirmed bool) error

	ListAdmins(ctx context.Context) ([]model.Admin, error)
	AddAdmin(ctx context.Context, in AdminInput) (*model.Admin, error)
	DeleteAdmin(ctx context.Context, id uint, confirmed bool) error

	ListMarketPosts(ctx context.Context) (*MarketPosts, error)
	DeleteMarketPost(ctx context.Context, kind model.ItemKind, id uint, confirmed bool) error

	ListRatings(ctx context.Context) ([]model.Rating, error)
	DeleteRating(ctx context.Context, id uint, confirmed bool) error

	GetLegal(ctx context.Context, contentType string) (*model.LegalContent, error)
	UpsertLegal(ctx context.Context, contentType, content string) (*model.LegalContent, error)

	Seed(ctx context.Context) error
}

type AdminStats struct {
	Pharmacies        int64                  `json:"pharmacies"`
	Offers            int64                  `json:"offers"`
	Requests          int64                  `json:"requests"`
	Archived          int64                  `json:"archived"`
	Pending           int64                  `json:"pending"`
	TopOfferedDrugs   []repository.DrugCount `json:"top_offered_drugs"`
	TopRequestedDrugs []repository.DrugCount `json:"top_requested_drugs"`
}

type PharmacySummary struct {
	model.Pharmacy
	SuccessScore int64 `json:"success_score"`
}

type AdminInput struct {
	UID      string `json:"uid" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type MarketPosts struct {
	Offers   []model.Offer   `json:"offers"`
	Requests []model.Request `json:"requests"`
}

type adminService struct {
	pharmacies  repository.PharmacyRepository
	credentials repository.CredentialRepository
	admins      repository.AdminRepository
	catalog     repository.CatalogRepository
	inventory   repository.InventoryRepository
	archive     repository.ArchiveRepository
	ratings     repository.RatingRepository
	legal       repository.LegalRepository
	reputation  cache.ReputationCache
	seed        SeedAdmin
	notify      Notifier
	log         *logrus.Logger
}

// AdminDeps groups the repositories the moderation service works on.
type AdminDeps struct {
	Pharmacies  repository.PharmacyRepository
	Credentials repository.CredentialRepository
	Admins      repository.AdminRepository
	Catalog     repository.CatalogRepository
	Inventory   repository.InventoryRepository
	Archive     repository.ArchiveRepository
	Ratings     repository.RatingRepository
	Legal       repository.LegalRepository
	Reputation  cache.ReputationCache
}

func NewAdminService(deps AdminDeps, seed SeedAdmin, notify Notifier, log *logrus.Logger) AdminService {
	return &adminService{
		pharmacies:  deps.Pharmacies,
		credentials: deps.Credentials,
		admins:      deps.Admins,
		catalog:     deps.Catalog,
		inventory:   deps.Inventory,
		archive:     deps.Archive,
		ratings:     deps.Ratings,
		legal:       deps.Legal,
		reputation:  deps.Reputation,
		seed:        seed,
		notify:      notifierOrNop(notify),
		log:         log,
	}
}

// Stats never fails; each counter that cannot be read stays at zero.
func (s *adminService) Stats(ctx context.Context) *AdminStats {
	ctx, span := tracer.Start(ctx, "Admin.Service.Stats")
	defer span.End()

	stats := &AdminStats{
		TopOfferedDrugs:   []repository.DrugCount{},
		TopRequestedDrugs: []repository.DrugCount{},
	}
	count := func(what string, fn func(context.Context) (int64, error), dst *int64) {
		n, err := fn(ctx)
		if err != nil {
			logger.LogError(s.log, "admin", "Stats", what, nil, err)
			return
		}
		*dst = n
	}
	count("pharmacies", s.pharmacies.Count, &stats.Pharmacies)
	count("offers", func(ctx context.Context) (int64, error) { return s.inventory.CountOffers(ctx, 0) }, &stats.Offers)
	count("requests", func(ctx context.Context) (int64, error) { return s.inventory.CountRequests(ctx, 0) }, &stats.Requests)
	count("archive", s.archive.CountAll, &stats.Archived)
	count("pending", s.catalog.CountPending, &stats.Pending)

	if top, err := s.inventory.TopDrugs(ctx, model.KindOffer, topDrugsLimit); err == nil {
		stats.TopOfferedDrugs = top
	} else {
		logger.LogError(s.log, "admin", "Stats", "top offered", nil, err)
	}
	if top, err := s.inventory.TopDrugs(ctx, model.KindRequest, topDrugsLimit); err == nil {
		stats.TopRequestedDrugs = top
	} else {
		logger.LogError(s.log, "admin", "Stats", "top requested", nil, err)
	}
	return stats
}

func (s *adminService) ListPending(ctx context.Context) ([]model.PendingItem, error) {
	return s.catalog.ListPending(ctx)
}

// ApprovePending sanitizes the proposal and moves it into the catalog atomically.
func (s *adminService) ApprovePending(ctx context.Context, id uint) (*model.CatalogDrug, error) {
	ctx, span := tracer.Start(ctx, "Admin.Service.ApprovePending")
	defer span.End()

	drug, err := s.catalog.Promote(ctx, id, func(p *model.PendingItem) (model.CatalogDrug, error) {
		return p.ToCatalogDrug()
	})
	if err != nil {
		return nil, recordErr(span, notFound(err))
	}
	s.notify.Publish(ws.Event{Type: EventCatalogUpdate, Action: "approved", Data: drug})
	return drug, nil
}

func (s *adminService) RejectPending(ctx context.Context, id uint) error {
	return notFound(s.catalog.DeletePending(ctx, id))
}

func (s *adminService) ListPharmacies(ctx context.Context) ([]PharmacySummary, error) {
	pharmacies, err := s.pharmacies.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(pharmacies))
	for _, p := range pharmacies {
		ids = append(ids, p.PharmacyID)
	}
	scores, err := s.archive.CountByPharmacies(ctx, ids)
	if err != nil {
		logger.LogError(s.log, "admin", "ListPharmacies", "success scores", nil, err)
	}

	out := make([]PharmacySummary, 0, len(pharmacies))
	for _, p := range pharmacies {
		out = append(out, PharmacySummary{Pharmacy: p, SuccessScore: scores[p.PharmacyID]})
	}
	return out, nil
}

// ToggleBlacklist flips the account status. Blacklisting also ends the pharmacy's current session.
func (s *adminService) ToggleBlacklist(ctx context.Context, pharmacyID int64) (model.AccountStatus, error) {
	p, err := s.pharmacies.FindByID(ctx, pharmacyID)
	if err != nil {
		return "", notFound(err)
	}
	status := p.ToggledStatus()
	if err := s.pharmacies.SetStatus(ctx, pharmacyID, status); err != nil {
		return "", notFound(err)
	}

	if status == model.AccountBlacklisted {
		cred, err := s.credentials.FindByPharmacyID(ctx, pharmacyID)
		if err == nil {
			err = s.credentials.UpdateTokenVersion(ctx, cred.ID, uuid.New().String())
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			logger.LogError(s.log, "admin", "ToggleBlacklist", "rotate token version", pharmacyID, err)
		}
	}
	return status, nil
}

func (s *adminService) DeletePharmacy(ctx context.Context, pharmacyID int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	// the pharmacy's ratings go with it, so everyone it rated needs a fresh reputation
	rated, err := s.ratings.RatedBy(ctx, pharmacyID)
	if err != nil {
		logger.LogError(s.log, "admin", "DeletePharmacy", "list rated pharmacies", pharmacyID, err)
	}
	if err := s.pharmacies.Delete(ctx, pharmacyID); err != nil {
		return notFound(err)
	}
	stale := append([]int64{pharmacyID}, rated...)
	if err := s.reputation.Invalidate(ctx, stale...); err != nil {
		logger.LogError(s.log, "admin", "DeletePharmacy", "invalidate reputation", stale, err)
	}
	s.notify.Publish(ws.Event{Type: EventMarketplaceUpdate, Action: "pharmacy_deleted", Data: pharmacyID})
	return nil
}

func (s *adminService) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return s.admins.FindAll(ctx)
}

func (s *adminService) AddAdmin(ctx context.Context, in AdminInput) (*model.Admin, error) {
	in.Email = model.NormalizeEmail(in.Email)
	in.UID = strings.TrimSpace(in.UID)
	if err := validator.Validate(&in); err != nil {
		return nil, err
	}
	admin := &model.Admin{UID: in.UID, Email: in.Email}
	if err := admin.SetPassword(in.Password); err != nil {
		return nil, err
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *adminService) DeleteAdmin(ctx context.Context, id uint, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if s.isSeed(admin) {
		return ErrSeedAdminProtected
	}
	return notFound(s.admins.Delete(ctx, id))
}

func (s *adminService) isSeed(a *model.Admin) bool {
	if s.seed.UID != "" && a.UID == s.seed.UID {
		return true
	}
	return s.seed.Email != "" && model.NormalizeEmail(a.Email) == model.NormalizeEmail(s.seed.Email)
}

func (s *adminService) ListMarketPosts(ctx context.Context) (*MarketPosts, error) {
	offers, err := s.inventory.ListOpenOffers(ctx, adminListLimit)
	if err != nil {
		return nil, err
	}
	requests, err := s.inventory.ListOpenRequests(ctx, adminListLimit)
	if err != nil {
		return nil, err
	}
	return &MarketPosts{Offers: offers, Requests: requests}, nil
}

func (s *adminService) DeleteMarketPost(ctx context.Context, kind model.ItemKind, id uint, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.inventory.DeleteItem(ctx, kind, id); err != nil {
		return notFound(err)
	}
	s.notify.Publish(ws.Event{Type: EventMarketplaceUpdate, Action: string(kind) + "_removed", Data: id})
	return nil
}

func (s *adminService) ListRatings(ctx context.Context) ([]model.Rating, error) {
	return s.ratings.ListLatest(ctx, adminListLimit)
}

func (s *adminService) DeleteRating(ctx context.Context, id uint, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	rating, err := s.ratings.Delete(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if err := s.reputation.Invalidate(ctx, rating.ToPharmacyID); err != nil {
		logger.LogError(s.log, "admin", "DeleteRating", "invalidate reputation", rating.ToPharmacyID, err)
	}
	return nil
}

func (s *adminService) GetLegal(ctx context.Context, contentType string) (*model.LegalContent, error) {
	c, err := s.legal.Find(ctx, contentType)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *adminService) UpsertLegal(ctx context.Context, contentType, content string) (*model.LegalContent, error) {
	contentType = strings.TrimSpace(contentType)
	if err := validator.Validate(&struct {
		Type    string `validate:"required,max=50"`
		Content string `validate:"required"`
	}{contentType, content}); err != nil {
		return nil, err
	}
	return s.legal.Upsert(ctx, contentType, content)
}

// Seed creates the configured bootstrap admin and default terms when they are missing.
func (s *adminService) Seed(ctx context.Context) error {
	if s.seed.Email != "" && s.seed.UID != "" {
		_, err := s.admins.FindByUID(ctx, s.seed.UID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			admin := &model.Admin{UID: s.seed.UID, Email: model.NormalizeEmail(s.seed.Email)}
			if s.seed.Password != "" {
				if err := admin.SetPassword(s.seed.Password); err != nil {
					return err
				}
			}
			if err := s.admins.Create(ctx, admin); err != nil {
				return err
			}
			s.log.WithField("email", admin.Email).Info("seed admin created")
		case err != nil:
			return err
		}
	}

	_, err := s.legal.Find(ctx, model.LegalTerms)
	if errors.Is(err, repository.ErrNotFound) {
		_, err = s.legal.Upsert(ctx, model.LegalTerms, DefaultTerms)
	}
	return err
}
