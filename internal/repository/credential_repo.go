package repository

import (
	"context"

	"go-pharma-exchange/internal/model"

	"gorm.io/gorm"
)

type CredentialRepository interface {
	Create(ctx context.Context, credential *model.Credential) error
	FindByEmail(ctx context.Context, email string) (*model.Credential, error)
	FindByPharmacyID(ctx context.Context, pharmacyID int64) (*model.Credential, error)
	UpdateTokenVersion(ctx context.Context, id uint, version string) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
}

type credentialRepo struct {
	db *gorm.DB
}

func NewCredentialRepo(db *gorm.DB) CredentialRepository {
	return &credentialRepo{db}
}

func (r *credentialRepo) Create(ctx context.Context, credential *model.Credential) error {
	credential.Email = model.NormalizeEmail(credential.Email)
	return translate(r.db.WithContext(ctx).Create(credential).Error, "create credential")
}

// FindByEmail matches case-insensitively.
func (r *credentialRepo) FindByEmail(ctx context.Context, email string) (*model.Credential, error) {
	var credential model.Credential
	err := r.db.WithContext(ctx).First(&credential, "LOWER(email) = ?", model.NormalizeEmail(email)).Error
	if err != nil {
		return nil, translate(err, "find credential")
	}
	return &credential, nil
}

func (r *credentialRepo) FindByPharmacyID(ctx context.Context, pharmacyID int64) (*model.Credential, error) {
	var credential model.Credential
	if err := r.db.WithContext(ctx).First(&credential, "pharmacy_id = ?", pharmacyID).Error; err != nil {
		return nil, translate(err, "find credential")
	}
	return &credential, nil
}

func (r *credentialRepo) UpdateTokenVersion(ctx context.Context, id uint, version string) error {
	err := r.db.WithContext(ctx).Model(&model.Credential{}).Where("id = ?", id).Update("token_version", version).Error
	return translate(err, "update token version")
}

func (r *credentialRepo) UpdatePassword(ctx context.Context, id uint, hash string) error {
	err := r.db.WithContext(ctx).Model(&model.Credential{}).Where("id = ?", id).Update("password", hash).Error
	return translate(err, "update password")
}
