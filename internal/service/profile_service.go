package service

import (
	"context"
	"errors"

	"go-pharma-exchange/internal/cache"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/internal/storage"
	"go-pharma-exchange/internal/webhook"
	"go-pharma-exchange/pkg/logger"
	"go-pharma-exchange/pkg/validator"

	"github.com/sirupsen/logrus"
)

type ProfileService interface {
	Get(ctx context.Context, s model.Session) (*ProfileView, error)
	Update(ctx context.Context, s model.Session, in ProfileInput) (*model.PharmacyProfile, error)
	UploadAvatar(ctx context.Context, s model.Session, filename string, data []byte) (string, error)
}

type ProfileView struct {
	Profile    model.PharmacyProfile `json:"profile"`
	Email      string                `json:"email"`
	LicenseNo  string                `json:"license_no,omitempty"`
	Reputation model.Reputation      `json:"reputation"`
}

type profileService struct {
	pharmacies repository.PharmacyRepository
	workflows  webhook.Dispatcher
	store      storage.ObjectStore
	reputation *reputationLoader
	log        *logrus.Logger
}

func NewProfileService(
	pharmacies repository.PharmacyRepository,
	ratings repository.RatingRepository,
	archive repository.ArchiveRepository,
	reputation cache.ReputationCache,
	workflows webhook.Dispatcher,
	store storage.ObjectStore,
	log *logrus.Logger,
) ProfileService {
	return &profileService{
		pharmacies: pharmacies,
		workflows:  workflows,
		store:      store,
		reputation: newReputationLoader(ratings, archive, reputation, log),
		log:        log,
	}
}

func (s *profileService) Get(ctx context.Context, sess model.Session) (*ProfileView, error) {
	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}

	view := &ProfileView{Profile: model.FallbackProfile(sess.PharmacyID), Email: sess.Email}
	p, err := s.pharmacies.FindByID(ctx, sess.PharmacyID)
	switch {
	case err == nil:
		view.Profile = p.ToProfile()
		view.LicenseNo = p.LicenseNo
		if p.Email != "" {
			view.Email = p.Email
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	view.Reputation = s.reputation.Load(ctx, []int64{sess.PharmacyID})[sess.PharmacyID]
	return view, nil
}

// Update writes the profile row directly and then runs the save-profile workflow.
// A failed direct write is only logged; the workflow is authoritative.
func (s *profileService) Update(ctx context.Context, sess model.Session, in ProfileInput) (*model.PharmacyProfile, error) {
	ctx, span := tracer.Start(ctx, "Profile.Service.Update")
	defer span.End()

	if !sess.IsPharmacy() {
		return nil, ErrPharmacyOnly
	}
	if err := validator.Validate(&in); err != nil {
		return nil, err
	}

	phone := model.DigitsOnly(in.Phone)
	err := s.pharmacies.UpdateFields(ctx, sess.PharmacyID, map[string]interface{}{
		"pharmacy_name": in.Name,
		"city":          in.City,
		"address":       in.Address,
		"phone":         phone,
		"license_no":    model.DigitsOnly(in.LicenseNo),
		"telegram":      in.Telegram,
	})
	if err != nil {
		logger.LogError(s.log, "profile", "Update", "direct update", sess.PharmacyID, err)
	}

	payload := profilePayload(sess.PharmacyID, in)
	payload.Email = sess.Email
	if err := s.workflows.SaveProfile(ctx, payload); err != nil {
		return nil, recordErr(span, err)
	}

	profile := model.PharmacyProfile{
		ID:       model.FormatPharmacyID(sess.PharmacyID),
		Name:     in.Name,
		City:     in.City,
		Address:  in.Address,
		Phone:    phone,
		Telegram: in.Telegram,
	}
	if p, err := s.pharmacies.FindByID(ctx, sess.PharmacyID); err == nil {
		profile.ProfilePic = p.ProfilePic
	}
	return &profile, nil
}

// UploadAvatar normalizes the image, stores it under a stable name and records its public URL.
func (s *profileService) UploadAvatar(ctx context.Context, sess model.Session, filename string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "Profile.Service.UploadAvatar")
	defer span.End()

	if !sess.IsPharmacy() {
		return "", ErrPharmacyOnly
	}
	img, ext, contentType, err := storage.PrepareAvatar(data, filename)
	if err != nil {
		return "", err
	}

	name := storage.AvatarObjectName(model.FormatPharmacyID(sess.PharmacyID), ext)
	url, err := s.store.Put(ctx, name, img, contentType)
	if err != nil {
		return "", recordErr(span, err)
	}
	if err := s.pharmacies.UpdateFields(ctx, sess.PharmacyID, map[string]interface{}{"profile_pic": url}); err != nil {
		return "", recordErr(span, notFound(err))
	}
	return url, nil
}
