package repository

import (
	"context"
	"time"

	"go-pharma-exchange/internal/model"

	"gorm.io/gorm"
)

type PharmacyRepository interface {
	Create(ctx context.Context, pharmacy *model.Pharmacy) error
	FindByID(ctx context.Context, id int64) (*model.Pharmacy, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Pharmacy, error)
	FindAll(ctx context.Context) ([]model.Pharmacy, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	SetStatus(ctx context.Context, id int64, status model.AccountStatus) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type pharmacyRepo struct {
	db *gorm.DB
}

func NewPharmacyRepo(db *gorm.DB) PharmacyRepository {
	return &pharmacyRepo{db}
}

func (r *pharmacyRepo) Create(ctx context.Context, pharmacy *model.Pharmacy) error {
	return translate(r.db.WithContext(ctx).Create(pharmacy).Error, "create pharmacy")
}

func (r *pharmacyRepo) FindByID(ctx context.Context, id int64) (*model.Pharmacy, error) {
	var pharmacy model.Pharmacy
	if err := r.db.WithContext(ctx).First(&pharmacy, "pharmacy_id = ?", id).Error; err != nil {
		return nil, translate(err, "find pharmacy")
	}
	return &pharmacy, nil
}

func (r *pharmacyRepo) FindByIDs(ctx context.Context, ids []int64) ([]model.Pharmacy, error) {
	var pharmacies []model.Pharmacy
	if len(ids) == 0 {
		return pharmacies, nil
	}
	err := r.db.WithContext(ctx).Where("pharmacy_id IN ?", ids).Find(&pharmacies).Error
	return pharmacies, translate(err, "find pharmacies")
}

func (r *pharmacyRepo) FindAll(ctx context.Context) ([]model.Pharmacy, error) {
	var pharmacies []model.Pharmacy
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&pharmacies).Error
	return pharmacies, translate(err, "list pharmacies")
}

func (r *pharmacyRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Pharmacy{}).Where("pharmacy_id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "update pharmacy")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pharmacyRepo) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.Pharmacy{}).
		Where("pharmacy_id = ?", id).
		Update("last_login", at).Error
	return translate(err, "update last login")
}

func (r *pharmacyRepo) SetStatus(ctx context.Context, id int64, status model.AccountStatus) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"account_status": status})
}

// Delete removes the pharmacy with its credential, open items and ratings.
// Archive rows are kept as the audit trail.
func (r *pharmacyRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pharmacy_id = ?", id).Delete(&model.Credential{}).Error; err != nil {
			return translate(err, "delete credential")
		}
		if err := tx.Where("pharmacy_id = ?", id).Delete(&model.Offer{}).Error; err != nil {
			return translate(err, "delete offers")
		}
		if err := tx.Where("pharmacy_id = ?", id).Delete(&model.Request{}).Error; err != nil {
			return translate(err, "delete requests")
		}
		if err := tx.Where("from_pharmacy_id = ? OR to_pharmacy_id = ?", id, id).Delete(&model.Rating{}).Error; err != nil {
			return translate(err, "delete ratings")
		}
		res := tx.Where("pharmacy_id = ?", id).Delete(&model.Pharmacy{})
		if res.Error != nil {
			return translate(res.Error, "delete pharmacy")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *pharmacyRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Pharmacy{}).Count(&n).Error
	return n, translate(err, "count pharmacies")
}
