package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go-pharma-exchange/internal/lock"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/internal/webhook"
	"go-pharma-exchange/pkg/jwt"
	"go-pharma-exchange/pkg/logger"
	"go-pharma-exchange/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SeedAdmin is the bootstrap moderator supplied by configuration.
type SeedAdmin struct {
	Email    string
	UID      string
	Password string
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Register(ctx context.Context, in RegisterInput) (*RegisterResponse, error)
	CompleteProfile(ctx context.Context, registrationToken string, in ProfileInput) (*LoginResponse, error)
	ChangePassword(ctx context.Context, s model.Session, current, next string) error
	Logout(ctx context.Context, s model.Session) ([]string, error)
	Authenticate(ctx context.Context, token string) (*model.Session, error)
	ValidateToken(ctx context.Context, token string) (*model.SessionView, error)
	SessionView(ctx context.Context, s model.Session) (*model.SessionView, error)
}

type UserCredentials struct {
	Email string `json:"email"`
}

type LoginResponse struct {
	Token string `json:"token,omitempty"`
	model.SessionView
	UserCredentials UserCredentials `json:"user_credentials"`
}

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	AcceptTerms bool   `json:"accept_terms" validate:"eq=true"`
}

type RegisterResponse struct {
	PharmacyID        string `json:"pharmacy_id"`
	RegistrationToken string `json:"registration_token"`
}

// ProfileInput is shared by profile completion and profile edits.
type ProfileInput struct {
	Name      string `json:"name" validate:"required,max=255"`
	City      string `json:"city" validate:"required,max=100"`
	Address   string `json:"address" validate:"max=500"`
	Phone     string `json:"phone" validate:"max=30"`
	LicenseNo string `json:"license_no" validate:"max=50"`
	Telegram  string `json:"telegram" validate:"max=100"`
}

type authService struct {
	pharmacies  repository.PharmacyRepository
	credentials repository.CredentialRepository
	admins      repository.AdminRepository
	workflows   webhook.Dispatcher
	locker      lock.Locker
	seed        SeedAdmin
	log         *logrus.Logger
	now         func() time.Time
}

func NewAuthService(
	pharmacies repository.PharmacyRepository,
	credentials repository.CredentialRepository,
	admins repository.AdminRepository,
	workflows webhook.Dispatcher,
	locker lock.Locker,
	seed SeedAdmin,
	log *logrus.Logger,
) AuthService {
	return &authService{
		pharmacies:  pharmacies,
		credentials: credentials,
		admins:      admins,
		workflows:   workflows,
		locker:      locker,
		seed:        seed,
		log:         log,
		now:         time.Now,
	}
}

// Login tries the seed admin, then the admin table, then pharmacy credentials.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Login")
	defer span.End()

	email = model.NormalizeEmail(email)

	if s.seed.Email != "" && email == model.NormalizeEmail(s.seed.Email) {
		admin, err := s.admins.FindByUID(ctx, s.seed.UID)
		if err != nil || model.NormalizeEmail(admin.Email) != email || !admin.CheckPassword(password) {
			return nil, recordErr(span, ErrUnauthorizedAdmin)
		}
		return s.adminLogin(ctx, admin)
	}

	admin, err := s.admins.FindByEmail(ctx, email)
	if err == nil {
		if !admin.CheckPassword(password) {
			return nil, ErrInvalidPassword
		}
		return s.adminLogin(ctx, admin)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, recordErr(span, err)
	}

	cred, err := s.credentials.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEmailNotFound
	}
	if err != nil {
		return nil, recordErr(span, err)
	}
	if !cred.CheckPassword(password) {
		return nil, ErrInvalidPassword
	}

	profile := model.FallbackProfile(cred.PharmacyID)
	pharmacy, err := s.pharmacies.FindByID(ctx, cred.PharmacyID)
	switch {
	case err == nil:
		if pharmacy.IsBlacklisted() {
			return nil, ErrAccountBlacklisted
		}
		profile = pharmacy.ToProfile()
	case errors.Is(err, repository.ErrNotFound):
		s.log.WithField("pharmacy_id", cred.PharmacyID).Warn("credential without pharmacy profile, using fallback")
	default:
		return nil, recordErr(span, err)
	}

	return s.pharmacyLogin(ctx, cred, profile, pharmacy != nil)
}

func (s *authService) pharmacyLogin(ctx context.Context, cred *model.Credential, profile model.PharmacyProfile, hasProfile bool) (*LoginResponse, error) {
	version := uuid.New().String()
	if err := s.credentials.UpdateTokenVersion(ctx, cred.ID, version); err != nil {
		return nil, err
	}
	if hasProfile {
		if err := s.pharmacies.UpdateLastLogin(ctx, cred.PharmacyID, s.now()); err != nil {
			logger.LogError(s.log, "auth", "Login", "update last login", cred.PharmacyID, err)
		}
	}

	token, err := jwt.GeneratePharmacyToken(cred.PharmacyID, cred.Email, version)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token: token,
		SessionView: model.SessionView{
			PharmacyID:      model.FormatPharmacyID(cred.PharmacyID),
			PharmacyProfile: &profile,
		},
		UserCredentials: UserCredentials{Email: cred.Email},
	}, nil
}

func (s *authService) adminLogin(ctx context.Context, admin *model.Admin) (*LoginResponse, error) {
	version := uuid.New().String()
	if err := s.admins.UpdateTokenVersion(ctx, admin.ID, version); err != nil {
		return nil, err
	}
	token, err := jwt.GenerateAdminToken(admin.UID, admin.Email, version)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:           token,
		SessionView:     model.SessionView{IsAdmin: true, AdminEmail: admin.Email},
		UserCredentials: UserCredentials{Email: admin.Email},
	}, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*RegisterResponse, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Register")
	defer span.End()

	in.Email = model.NormalizeEmail(in.Email)
	if err := validator.Validate(&in); err != nil {
		return nil, err
	}

	lk, err := s.locker.Obtain(ctx, "register:"+in.Email, 30*time.Second)
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, ErrRegistrationBusy
	}
	if err != nil {
		return nil, recordErr(span, err)
	}
	defer func() {
		if err := lk.Release(context.Background()); err != nil {
			logger.LogError(s.log, "auth", "Register", "release lock", in.Email, err)
		}
	}()

	hash, err := model.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	pharmacyID := s.now().Unix()
	err = s.workflows.Register(ctx, webhook.RegisterPayload{
		Email:        in.Email,
		PasswordHash: hash,
		PharmacyID:   pharmacyID,
	})
	if errors.Is(err, webhook.ErrDuplicate) {
		return nil, ErrEmailRegistered
	}
	if err != nil {
		return nil, recordErr(span, err)
	}

	token, err := jwt.GenerateRegistrationToken(pharmacyID, in.Email)
	if err != nil {
		return nil, err
	}
	return &RegisterResponse{
		PharmacyID:        model.FormatPharmacyID(pharmacyID),
		RegistrationToken: token,
	}, nil
}

// CompleteProfile saves the profile of a freshly registered pharmacy and opens its first session.
// When the credential is not yet visible the response carries no token and the client logs in normally.
func (s *authService) CompleteProfile(ctx context.Context, registrationToken string, in ProfileInput) (*LoginResponse, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.CompleteProfile")
	defer span.End()

	claims, err := jwt.ValidateToken(registrationToken)
	if err != nil || claims.Purpose != jwt.PurposeRegistration || claims.PharmacyID == 0 {
		return nil, jwt.ErrInvalidToken
	}
	if err := validator.Validate(&in); err != nil {
		return nil, err
	}

	payload := profilePayload(claims.PharmacyID, in)
	payload.Email = claims.Email
	if err := s.workflows.SaveProfile(ctx, payload); err != nil {
		return nil, recordErr(span, err)
	}

	profile := model.PharmacyProfile{
		ID:       model.FormatPharmacyID(claims.PharmacyID),
		Name:     in.Name,
		City:     in.City,
		Address:  in.Address,
		Phone:    model.DigitsOnly(in.Phone),
		Telegram: in.Telegram,
	}

	cred, err := s.credentials.FindByEmail(ctx, claims.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.LogError(s.log, "auth", "CompleteProfile", "find credential", claims.Email, err)
		}
		return &LoginResponse{
			SessionView:     model.SessionView{PharmacyID: profile.ID, PharmacyProfile: &profile},
			UserCredentials: UserCredentials{Email: claims.Email},
		}, nil
	}
	return s.pharmacyLogin(ctx, cred, profile, true)
}

func (s *authService) ChangePassword(ctx context.Context, sess model.Session, current, next string) error {
	if !sess.IsPharmacy() {
		return ErrPharmacyOnly
	}
	if err := validator.Validate(&struct {
		Current string `validate:"required"`
		Next    string `validate:"required,min=6"`
	}{current, next}); err != nil {
		return err
	}

	cred, err := s.credentials.FindByPharmacyID(ctx, sess.PharmacyID)
	if err != nil {
		return notFound(err)
	}
	if !cred.CheckPassword(current) {
		return ErrWrongPassword
	}
	hash, err := model.HashPassword(next)
	if err != nil {
		return err
	}
	return s.credentials.UpdatePassword(ctx, cred.ID, hash)
}

// Logout rotates the token version so the current token stops working, and
// returns the client-side keys that must be cleared.
func (s *authService) Logout(ctx context.Context, sess model.Session) ([]string, error) {
	version := uuid.New().String()
	if sess.IsAdmin {
		admin, err := s.admins.FindByUID(ctx, sess.AdminUID)
		if err != nil {
			return nil, notFound(err)
		}
		if err := s.admins.UpdateTokenVersion(ctx, admin.ID, version); err != nil {
			return nil, err
		}
		return model.SessionKeys(), nil
	}

	cred, err := s.credentials.FindByPharmacyID(ctx, sess.PharmacyID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.credentials.UpdateTokenVersion(ctx, cred.ID, version); err != nil {
		return nil, err
	}
	return model.SessionKeys(), nil
}

// Authenticate turns a session token into a Session, rejecting rotated and purpose-bound tokens.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Authenticate")
	defer span.End()

	claims, err := jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, jwt.ErrInvalidToken
	}

	if claims.IsAdmin {
		admin, err := s.admins.FindByUID(ctx, claims.AdminUID)
		if err != nil {
			return nil, jwt.ErrInvalidToken
		}
		if admin.TokenVersion != claims.TokenVersion {
			return nil, ErrSessionExpired
		}
		return &model.Session{IsAdmin: true, AdminEmail: admin.Email, AdminUID: admin.UID, Email: admin.Email}, nil
	}

	cred, err := s.credentials.FindByPharmacyID(ctx, claims.PharmacyID)
	if err != nil {
		return nil, jwt.ErrInvalidToken
	}
	if cred.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionExpired
	}
	return &model.Session{PharmacyID: cred.PharmacyID, Email: cred.Email}, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*model.SessionView, error) {
	sess, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.SessionView(ctx, *sess)
}

func (s *authService) SessionView(ctx context.Context, sess model.Session) (*model.SessionView, error) {
	if sess.IsAdmin {
		return &model.SessionView{IsAdmin: true, AdminEmail: sess.AdminEmail}, nil
	}

	profile := model.FallbackProfile(sess.PharmacyID)
	pharmacy, err := s.pharmacies.FindByID(ctx, sess.PharmacyID)
	switch {
	case err == nil:
		if pharmacy.IsBlacklisted() {
			return nil, ErrAccountBlacklisted
		}
		profile = pharmacy.ToProfile()
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return &model.SessionView{
		PharmacyID:      model.FormatPharmacyID(sess.PharmacyID),
		PharmacyProfile: &profile,
	}, nil
}

func profilePayload(pharmacyID int64, in ProfileInput) webhook.ProfilePayload {
	return webhook.ProfilePayload{
		PharmacyID: pharmacyID,
		Name:       in.Name,
		City:       in.City,
		Address:    in.Address,
		Phone:      digitsNumber(in.Phone),
		LicenseNo:  digitsNumber(in.LicenseNo),
		Telegram:   in.Telegram,
	}
}

// digitsNumber keeps the digits of s as a number; anything unusable becomes 0.
func digitsNumber(s string) int64 {
	n, err := strconv.ParseInt(model.DigitsOnly(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
