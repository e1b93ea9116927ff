package repository

import (
	"context"
	"strings"

	"go-pharma-exchange/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository interface {
	Search(ctx context.Context, query string, limit int) ([]model.CatalogDrug, error)
	FindByID(ctx context.Context, id uint) (*model.CatalogDrug, error)

	CreatePending(ctx context.Context, item *model.PendingItem) error
	ListPending(ctx context.Context) ([]model.PendingItem, error)
	CountPending(ctx context.Context) (int64, error)
	DeletePending(ctx context.Context, id uint) error
	// Promote converts a pending item into a catalog drug and removes it from the queue in one transaction.
	Promote(ctx context.Context, id uint, convert func(*model.PendingItem) (model.CatalogDrug, error)) (*model.CatalogDrug, error)
}

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db}
}

// escapeLike keeps user input from acting as LIKE wildcards.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *catalogRepo) Search(ctx context.Context, query string, limit int) ([]model.CatalogDrug, error) {
	var drugs []model.CatalogDrug
	pattern := "%" + escapeLike(query) + "%"
	err := r.db.WithContext(ctx).
		Where("arabic_name ILIKE ? OR english_name ILIKE ?", pattern, pattern).
		Limit(limit).
		Find(&drugs).Error
	return drugs, translate(err, "search catalog")
}

func (r *catalogRepo) FindByID(ctx context.Context, id uint) (*model.CatalogDrug, error) {
	var drug model.CatalogDrug
	if err := r.db.WithContext(ctx).First(&drug, id).Error; err != nil {
		return nil, translate(err, "find catalog drug")
	}
	return &drug, nil
}

func (r *catalogRepo) CreatePending(ctx context.Context, item *model.PendingItem) error {
	return translate(r.db.WithContext(ctx).Create(item).Error, "create pending item")
}

func (r *catalogRepo) ListPending(ctx context.Context) ([]model.PendingItem, error) {
	var items []model.PendingItem
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, translate(err, "list pending items")
}

func (r *catalogRepo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PendingItem{}).Count(&n).Error
	return n, translate(err, "count pending items")
}

func (r *catalogRepo) DeletePending(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.PendingItem{}, id)
	if res.Error != nil {
		return translate(res.Error, "delete pending item")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepo) Promote(ctx context.Context, id uint, convert func(*model.PendingItem) (model.CatalogDrug, error)) (*model.CatalogDrug, error) {
	var drug model.CatalogDrug
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending model.PendingItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&pending, id).Error; err != nil {
			return translate(err, "lock pending item")
		}

		var err error
		drug, err = convert(&pending)
		if err != nil {
			return err
		}

		if err := tx.Create(&drug).Error; err != nil {
			return translate(err, "insert catalog drug")
		}
		if err := tx.Delete(&pending).Error; err != nil {
			return translate(err, "delete pending item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &drug, nil
}
