package repository

import (
	"context"

	"go-pharma-exchange/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository interface {
	Create(ctx context.Context, rating *model.Rating) error
	Aggregate(ctx context.Context, pharmacyIDs []int64) (map[int64]RatingAggregate, error)
	ListLatest(ctx context.Context, limit int) ([]model.Rating, error)
	// RatedBy lists the distinct pharmacies a pharmacy has rated.
	RatedBy(ctx context.Context, fromPharmacyID int64) ([]int64, error)
	// Delete removes a rating and returns the deleted row.
	Delete(ctx context.Context, id uint) (*model.Rating, error)
}

type RatingAggregate struct {
	Average float64
	Count   int64
}

type ratingRepo struct {
	db *gorm.DB
}

func NewRatingRepo(db *gorm.DB) RatingRepository {
	return &ratingRepo{db}
}

// Create returns ErrDuplicate when the (from, to, kind, item) key was already rated.
func (r *ratingRepo) Create(ctx context.Context, rating *model.Rating) error {
	return translate(r.db.WithContext(ctx).Create(rating).Error, "create rating")
}

func (r *ratingRepo) Aggregate(ctx context.Context, pharmacyIDs []int64) (map[int64]RatingAggregate, error) {
	result := make(map[int64]RatingAggregate, len(pharmacyIDs))
	if len(pharmacyIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.WithContext(ctx).Model(&model.Rating{}).
		Select("to_pharmacy_id, AVG(stars), COUNT(*)").
		Where("to_pharmacy_id IN ?", pharmacyIDs).
		Group("to_pharmacy_id").
		Rows()
	if err != nil {
		return nil, translate(err, "aggregate ratings")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			agg RatingAggregate
		)
		if err := rows.Scan(&id, &agg.Average, &agg.Count); err != nil {
			return nil, translate(err, "scan rating aggregate")
		}
		result[id] = agg
	}
	return result, translate(rows.Err(), "aggregate ratings")
}

func (r *ratingRepo) ListLatest(ctx context.Context, limit int) ([]model.Rating, error) {
	var ratings []model.Rating
	err := r.db.WithContext(ctx).
		Preload("FromPharmacy").
		Preload("ToPharmacy").
		Order("created_at DESC").
		Limit(limit).
		Find(&ratings).Error
	return ratings, translate(err, "list ratings")
}

func (r *ratingRepo) RatedBy(ctx context.Context, fromPharmacyID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Rating{}).
		Where("from_pharmacy_id = ?", fromPharmacyID).
		Distinct().
		Pluck("to_pharmacy_id", &ids).Error
	return ids, translate(err, "list rated pharmacies")
}

func (r *ratingRepo) Delete(ctx context.Context, id uint) (*model.Rating, error) {
	var rating model.Rating
	res := r.db.WithContext(ctx).Clauses(clause.Returning{}).Where("id = ?", id).Delete(&rating)
	if res.Error != nil {
		return nil, translate(res.Error, "delete rating")
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &rating, nil
}
