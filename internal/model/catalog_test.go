package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPendingItemToCatalogDrugSanitizes(t *testing.T) {
	p := &PendingItem{
		EnglishName: " Panadol Extra ",
		ArabicName:  "بانادول",
		Barcode:     "622 123 4567",
		Price:       "120 EGP",
	}

	drug, err := p.ToCatalogDrug()
	if err != nil {
		t.Fatalf("ToCatalogDrug() error = %v", err)
	}
	if !drug.Price.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Price = %s, want 120", drug.Price)
	}
	if drug.Barcode != "6221234567" {
		t.Errorf("Barcode = %q, want 6221234567", drug.Barcode)
	}
	if drug.EnglishName != "Panadol Extra" {
		t.Errorf("EnglishName = %q", drug.EnglishName)
	}
}

func TestSanitizePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"120 EGP", "120", false},
		{"EGP 45.75", "45.75", false},
		{"1,250", "1250", false},
		{"12.50 EGP.", "12.5", false},
		{"", "0", false},
		{"  ", "0", false},
		{".5", "0.5", false},
		{"1.2.3", "1.2", false},
		{"free", "", true},
		{"EGP", "", true},
	}
	for _, tt := range tests {
		got, err := SanitizePrice(tt.in)
		if tt.wantErr {
			if err != ErrInvalidPrice {
				t.Errorf("SanitizePrice(%q) error = %v, want ErrInvalidPrice", tt.in, err)
			}
			continue
		}
		if err != nil || !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("SanitizePrice(%q) = %s, %v", tt.in, got, err)
		}
	}
}

func TestSanitizeBarcodeStripsAllWhitespace(t *testing.T) {
	if got := SanitizeBarcode(" 622\t123\n4567 "); got != "6221234567" {
		t.Errorf("SanitizeBarcode() = %q", got)
	}
}

func TestPendingItemWithoutPriceCanBeApproved(t *testing.T) {
	p := &PendingItem{EnglishName: "Zinc", ArabicName: "زنك", Brand: "Acme"}
	drug, err := p.ToCatalogDrug()
	if err != nil {
		t.Fatalf("ToCatalogDrug() error = %v", err)
	}
	if !drug.Price.IsZero() {
		t.Errorf("Price = %s, want 0", drug.Price)
	}
}
