package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/internal/search"
	"go-pharma-exchange/pkg/logger"
	"go-pharma-exchange/pkg/validator"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

type CatalogService interface {
	// Lookup never fails: a short query or a backend error yields no results.
	Lookup(ctx context.Context, query string) []model.CatalogDrug
	Search(ctx context.Context, query string) SearchResult
	ProposeMissing(ctx context.Context, s model.Session, in PendingInput) (*model.PendingItem, error)
}

type SearchResult struct {
	Query    string              `json:"query"`
	Results  []model.CatalogDrug `json:"results"`
	Searched bool                `json:"searched"`
	Missing  bool                `json:"missing"`
}

type PendingInput struct {
	EnglishName string `json:"english_name" validate:"required,max=255"`
	ArabicName  string `json:"arabic_name" validate:"required,max=255"`
	Barcode     string `json:"barcode" validate:"max=64"`
	Brand       string `json:"brand" validate:"required,max=255"`
	Price       string `json:"price" validate:"required,max=64"`
	Category    string `json:"category" validate:"max=100"`
}

type catalogService struct {
	catalog repository.CatalogRepository
	cache   *gocache.Cache
	limit   int
	log     *logrus.Logger
}

func NewCatalogService(catalog repository.CatalogRepository, limit int, log *logrus.Logger) CatalogService {
	if limit <= 0 {
		limit = 10
	}
	return &catalogService{
		catalog: catalog,
		cache:   gocache.New(time.Minute, 5*time.Minute),
		limit:   limit,
		log:     log,
	}
}

func (s *catalogService) Lookup(ctx context.Context, query string) []model.CatalogDrug {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < search.MinQueryLength {
		return nil
	}

	key := strings.ToLower(query)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]model.CatalogDrug)
	}

	ctx, span := tracer.Start(ctx, "Catalog.Service.Lookup")
	defer span.End()

	drugs, err := s.catalog.Search(ctx, query, s.limit)
	if err != nil {
		recordErr(span, err)
		logger.LogError(s.log, "catalog", "Lookup", "search master", query, err)
		return nil
	}
	// misses stay uncached so an approved drug shows up on the next search
	if len(drugs) > 0 {
		s.cache.SetDefault(key, drugs)
	}
	return drugs
}

func (s *catalogService) Search(ctx context.Context, query string) SearchResult {
	query = strings.TrimSpace(query)
	res := SearchResult{Query: query, Results: []model.CatalogDrug{}}
	if utf8.RuneCountInString(query) < search.MinQueryLength {
		return res
	}
	res.Searched = true
	if drugs := s.Lookup(ctx, query); len(drugs) > 0 {
		res.Results = drugs
	}
	res.Missing = len(res.Results) == 0
	return res
}

func (s *catalogService) ProposeMissing(ctx context.Context, sess model.Session, in PendingInput) (*model.PendingItem, error) {
	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}
	if err := validator.Validate(&in); err != nil {
		return nil, err
	}
	// approval must be able to read the price
	if _, err := model.SanitizePrice(in.Price); err != nil {
		return nil, err
	}

	item := &model.PendingItem{
		EnglishName:   strings.TrimSpace(in.EnglishName),
		ArabicName:    strings.TrimSpace(in.ArabicName),
		Barcode:       in.Barcode,
		Brand:         in.Brand,
		Price:         in.Price,
		FinalCategory: in.Category,
		AddedBy:       sess.PharmacyID,
	}
	if err := s.catalog.CreatePending(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
