package service

import (
	"context"
	"errors"
	"strings"

	"go-pharma-exchange/internal/cache"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/pkg/logger"
	"go-pharma-exchange/pkg/validator"

	"github.com/sirupsen/logrus"
)

type RatingService interface {
	Submit(ctx context.Context, s model.Session, in RatingInput) (*RatingResult, error)
}

type RatingInput struct {
	ToPharmacyID    int64          `json:"to_pharmacy_id" validate:"required"`
	RelatedItemKind model.ItemKind `json:"related_item_kind" validate:"omitempty,oneof=offer request"`
	RelatedItemID   uint           `json:"related_item_id"`
	Stars           int            `json:"stars" validate:"min=1,max=5"`
	Comment         string         `json:"comment" validate:"max=1000"`
}

// RatingResult reports Duplicate when the same pharmacy pair and item were already rated; that is still a success.
type RatingResult struct {
	Rating    *model.Rating `json:"rating,omitempty"`
	Duplicate bool          `json:"duplicate"`
}

type ratingService struct {
	ratings    repository.RatingRepository
	reputation cache.ReputationCache
	log        *logrus.Logger
}

func NewRatingService(ratings repository.RatingRepository, reputation cache.ReputationCache, log *logrus.Logger) RatingService {
	return &ratingService{ratings: ratings, reputation: reputation, log: log}
}

func (s *ratingService) Submit(ctx context.Context, sess model.Session, in RatingInput) (*RatingResult, error) {
	ctx, span := tracer.Start(ctx, "Rating.Service.Submit")
	defer span.End()

	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}
	if err := validator.Validate(&in); err != nil {
		return nil, err
	}
	if in.ToPharmacyID == sess.PharmacyID {
		return nil, ErrSelfRating
	}

	rating := &model.Rating{
		FromPharmacyID:  sess.PharmacyID,
		ToPharmacyID:    in.ToPharmacyID,
		RelatedItemKind: in.RelatedItemKind,
		RelatedItemID:   in.RelatedItemID,
		Stars:           in.Stars,
		Comment:         strings.TrimSpace(in.Comment),
	}
	err := s.ratings.Create(ctx, rating)
	if errors.Is(err, repository.ErrDuplicate) {
		return &RatingResult{Duplicate: true}, nil
	}
	if err != nil {
		return nil, recordErr(span, err)
	}

	if err := s.reputation.Invalidate(ctx, in.ToPharmacyID); err != nil {
		logger.LogError(s.log, "rating", "Submit", "invalidate reputation", in.ToPharmacyID, err)
	}
	return &RatingResult{Rating: rating}, nil
}
