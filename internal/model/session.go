package model

import (
	"strconv"
)

// Keys a client persists for a session; logout clears exactly these.
const (
	KeyPharmacyID      = "pharmacy_id"
	KeyPharmacyProfile = "pharmacy_profile"
	KeyIsAdmin         = "is_admin"
	KeyAdminEmail      = "admin_email"
	KeyUserCredentials = "user_credentials"
)

func SessionKeys() []string {
	return []string{KeyPharmacyID, KeyPharmacyProfile, KeyIsAdmin, KeyAdminEmail, KeyUserCredentials}
}

// Session is the authenticated identity passed to every service call.
type Session struct {
	PharmacyID int64
	Email      string
	IsAdmin    bool
	AdminEmail string
	AdminUID   string
}

func (s Session) IsPharmacy() bool {
	return !s.IsAdmin && s.PharmacyID != 0
}

// SessionView is the persisted-state view a client restores on reload.
type SessionView struct {
	PharmacyID      string           `json:"pharmacy_id,omitempty"`
	PharmacyProfile *PharmacyProfile `json:"pharmacy_profile,omitempty"`
	IsAdmin         bool             `json:"is_admin"`
	AdminEmail      string           `json:"admin_email,omitempty"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func FormatPharmacyID(id int64) string {
	return formatID(id)
}

func ParsePharmacyID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
