package repository

import (
	"context"

	"go-pharma-exchange/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LegalRepository interface {
	Find(ctx context.Context, contentType string) (*model.LegalContent, error)
	Upsert(ctx context.Context, contentType, content string) (*model.LegalContent, error)
}

type legalRepo struct {
	db *gorm.DB
}

func NewLegalRepo(db *gorm.DB) LegalRepository {
	return &legalRepo{db}
}

func (r *legalRepo) Find(ctx context.Context, contentType string) (*model.LegalContent, error) {
	var legal model.LegalContent
	if err := r.db.WithContext(ctx).First(&legal, "type = ?", contentType).Error; err != nil {
		return nil, translate(err, "find legal content")
	}
	return &legal, nil
}

func (r *legalRepo) Upsert(ctx context.Context, contentType, content string) (*model.LegalContent, error) {
	legal := model.LegalContent{Type: contentType, Content: content}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&legal).Error
	if err != nil {
		return nil, translate(err, "upsert legal content")
	}
	return &legal, nil
}
