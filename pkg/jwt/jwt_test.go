package jwt

import (
	"testing"
)

func TestPharmacyTokenRoundTrip(t *testing.T) {
	SetSecretKey("test-secret")

	token, err := GeneratePharmacyToken(1700000000, "a@b.com", "v1")
	if err != nil {
		t.Fatalf("GeneratePharmacyToken() error = %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.PharmacyID != 1700000000 || claims.Email != "a@b.com" || claims.TokenVersion != "v1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.IsAdmin || claims.Purpose != "" {
		t.Errorf("pharmacy token carries admin or purpose: %+v", claims)
	}
}

func TestAdminAndRegistrationTokens(t *testing.T) {
	SetSecretKey("test-secret")

	admin, _ := GenerateAdminToken("uid-1", "root@x.com", "v2")
	claims, err := ValidateToken(admin)
	if err != nil {
		t.Fatalf("ValidateToken(admin) error = %v", err)
	}
	if !claims.IsAdmin || claims.AdminUID != "uid-1" {
		t.Errorf("admin claims = %+v", claims)
	}

	reg, _ := GenerateRegistrationToken(42, "new@x.com")
	claims, err = ValidateToken(reg)
	if err != nil {
		t.Fatalf("ValidateToken(registration) error = %v", err)
	}
	if claims.Purpose != PurposeRegistration {
		t.Errorf("Purpose = %q, want %q", claims.Purpose, PurposeRegistration)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	SetSecretKey("one")
	token, _ := GeneratePharmacyToken(1, "a@b.com", "v")

	SetSecretKey("two")
	if _, err := ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
	if _, err := ValidateToken("garbage"); err != ErrInvalidToken {
		t.Errorf("ValidateToken(garbage) error = %v, want ErrInvalidToken", err)
	}
}
