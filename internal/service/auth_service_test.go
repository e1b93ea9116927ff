package service

import (
	"context"
	"errors"
	"testing"

	"go-pharma-exchange/internal/lock"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/webhook"
	"go-pharma-exchange/pkg/jwt"
)

type authFixture struct {
	svc         *authService
	pharmacies  *memPharmacies
	credentials *memCredentials
	admins      *memAdmins
	workflows   *recordingDispatcher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	jwt.SetSecretKey("test-secret")

	cred := &model.Credential{Email: "nile@example.com", PharmacyID: pharmacyA}
	if err := cred.SetPassword("secret1"); err != nil {
		t.Fatal(err)
	}
	seed := &model.Admin{UID: "seed-uid", Email: "root@example.com"}
	if err := seed.SetPassword("rootpass"); err != nil {
		t.Fatal(err)
	}

	f := &authFixture{
		pharmacies:  newMemPharmacies(model.Pharmacy{PharmacyID: pharmacyA, Name: "Nile Pharmacy", City: "Alexandria", AccountStatus: model.AccountActive}),
		credentials: &memCredentials{},
		admins:      &memAdmins{},
		workflows:   &recordingDispatcher{},
	}
	_ = f.credentials.Create(context.Background(), cred)
	_ = f.admins.Create(context.Background(), seed)

	f.svc = NewAuthService(f.pharmacies, f.credentials, f.admins, f.workflows, lock.NewLocalLocker(),
		SeedAdmin{Email: "root@example.com", UID: "seed-uid"}, quietLogger()).(*authService)
	return f
}

func TestLoginPaths(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
		admin    bool
	}{
		{name: "pharmacy", email: "  NILE@example.com ", password: "secret1"},
		{name: "unknown email", email: "nobody@example.com", password: "x", wantErr: ErrEmailNotFound},
		{name: "wrong password", email: "nile@example.com", password: "nope", wantErr: ErrInvalidPassword},
		{name: "seed admin", email: "root@example.com", password: "rootpass", admin: true},
		{name: "seed admin wrong password", email: "root@example.com", password: "bad", wantErr: ErrUnauthorizedAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			res, err := f.svc.Login(context.Background(), tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if res.Token == "" || res.IsAdmin != tt.admin {
				t.Fatalf("response = %+v", res)
			}
			if !tt.admin && (res.PharmacyProfile == nil || res.PharmacyProfile.City != "Alexandria") {
				t.Fatalf("profile = %+v", res.PharmacyProfile)
			}
		})
	}
}

func TestSeedAdminGuardIsStrict(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.seed.UID = "someone-else"

	if _, err := f.svc.Login(context.Background(), "root@example.com", "rootpass"); !errors.Is(err, ErrUnauthorizedAdmin) {
		t.Fatalf("err = %v, want ErrUnauthorizedAdmin", err)
	}
}

func TestBlacklistedPharmacyCannotLogin(t *testing.T) {
	f := newAuthFixture(t)
	_ = f.pharmacies.SetStatus(context.Background(), pharmacyA, model.AccountBlacklisted)

	if _, err := f.svc.Login(context.Background(), "nile@example.com", "secret1"); !errors.Is(err, ErrAccountBlacklisted) {
		t.Fatalf("err = %v, want ErrAccountBlacklisted", err)
	}
}

func TestLoginFallbackProfile(t *testing.T) {
	f := newAuthFixture(t)
	_ = f.pharmacies.Delete(context.Background(), pharmacyA)

	res, err := f.svc.Login(context.Background(), "nile@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.PharmacyProfile.Name != "Pharmacy User" || res.PharmacyProfile.City != "Cairo" {
		t.Fatalf("fallback profile = %+v", res.PharmacyProfile)
	}
}

func TestNewLoginInvalidatesOldToken(t *testing.T) {
	f := newAuthFixture(t)
	first, err := f.svc.Login(context.Background(), "nile@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Authenticate(context.Background(), first.Token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "nile@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Authenticate(context.Background(), first.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}

func TestLogoutReturnsClientKeys(t *testing.T) {
	f := newAuthFixture(t)
	res, _ := f.svc.Login(context.Background(), "nile@example.com", "secret1")
	sess, err := f.svc.Authenticate(context.Background(), res.Token)
	if err != nil {
		t.Fatal(err)
	}

	keys, err := f.svc.Logout(context.Background(), *sess)
	if err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(keys) != 5 {
		t.Fatalf("keys = %v", keys)
	}
	if _, err := f.svc.Authenticate(context.Background(), res.Token); err == nil {
		t.Fatal("token still valid after logout")
	}
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{Email: "new@example.com", Password: "secret1"})
	if err == nil {
		t.Fatal("terms not accepted but registration passed")
	}

	res, err := f.svc.Register(context.Background(), RegisterInput{Email: " New@Example.com", Password: "secret1", AcceptTerms: true})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(f.workflows.register) != 1 {
		t.Fatalf("register workflow calls = %d", len(f.workflows.register))
	}
	p := f.workflows.register[0]
	if p.Email != "new@example.com" || p.PasswordHash == "secret1" || p.PharmacyID == 0 {
		t.Fatalf("payload = %+v", p)
	}
	if _, err := f.svc.Authenticate(context.Background(), res.RegistrationToken); err == nil {
		t.Fatal("registration token accepted as a session")
	}

	f.workflows.err = webhook.ErrDuplicate
	if _, err := f.svc.Register(context.Background(), RegisterInput{Email: "nile@example.com", Password: "secret1", AcceptTerms: true}); !errors.Is(err, ErrEmailRegistered) {
		t.Fatalf("err = %v, want ErrEmailRegistered", err)
	}
}

func TestCompleteProfileStripsDigits(t *testing.T) {
	f := newAuthFixture(t)
	token, err := jwt.GenerateRegistrationToken(pharmacyB, "delta@example.com")
	if err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.CompleteProfile(context.Background(), token, ProfileInput{
		Name: "Delta", City: "Giza", Phone: "+20 (100) 123-4567", LicenseNo: "LIC-889",
	})
	if err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	p := f.workflows.profiles[0]
	if p.Phone != 201001234567 || p.LicenseNo != 889 || p.PharmacyID != pharmacyB {
		t.Fatalf("payload = %+v", p)
	}
	if res.Token != "" {
		t.Fatal("no credential yet, expected no session token")
	}
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	sess := model.Session{PharmacyID: pharmacyA}

	if err := f.svc.ChangePassword(context.Background(), sess, "wrong", "newpass"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("err = %v, want ErrWrongPassword", err)
	}
	if err := f.svc.ChangePassword(context.Background(), sess, "secret1", "newpass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "nile@example.com", "newpass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
