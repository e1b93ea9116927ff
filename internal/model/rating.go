package model

import "time"

// Rating is one review of a pharmacy, unique per (from, to, item kind, item).
// Offers and requests number their ids separately, so the kind is part of the key.
type Rating struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	FromPharmacyID  int64     `gorm:"not null;uniqueIndex:idx_rating_triple" json:"from_pharmacy_id"`
	ToPharmacyID    int64     `gorm:"not null;index;uniqueIndex:idx_rating_triple" json:"to_pharmacy_id"`
	RelatedItemKind ItemKind  `gorm:"type:varchar(10);default:'';uniqueIndex:idx_rating_triple" json:"related_item_kind,omitempty"`
	RelatedItemID   uint      `gorm:"uniqueIndex:idx_rating_triple" json:"related_item_id"`
	Stars           int       `gorm:"not null" json:"stars"`
	Comment         string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt       time.Time `json:"created_at"`

	FromPharmacy *Pharmacy `gorm:"foreignKey:FromPharmacyID;references:PharmacyID" json:"from_pharmacy,omitempty"`
	ToPharmacy   *Pharmacy `gorm:"foreignKey:ToPharmacyID;references:PharmacyID" json:"to_pharmacy,omitempty"`
}

func (Rating) TableName() string {
	return "ratings"
}

const (
	VerifiedMinRating       = 4.0
	VerifiedMinSuccessScore = 5
)

// Reputation aggregates the ratings and archive volume of one pharmacy.
type Reputation struct {
	Rating       float64 `json:"rating"`
	ReviewCount  int64   `json:"review_count"`
	SuccessScore int64   `json:"success_score"`
	IsVerified   bool    `json:"is_verified"`
}

func NewReputation(avg float64, reviews, successScore int64) Reputation {
	return Reputation{
		Rating:       avg,
		ReviewCount:  reviews,
		SuccessScore: successScore,
		IsVerified:   avg >= VerifiedMinRating && successScore >= VerifiedMinSuccessScore,
	}
}
