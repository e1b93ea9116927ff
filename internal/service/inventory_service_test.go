package service

import (
	"context"
	"errors"
	"testing"

	"go-pharma-exchange/internal/cache"
	"go-pharma-exchange/internal/model"

	"github.com/shopspring/decimal"
)

const (
	pharmacyA int64 = 1700000001
	pharmacyB int64 = 1700000002
)

func newInventoryFixture() (*inventoryService, *memInventory, *recordingDispatcher, *recordingNotifier) {
	inv := newMemInventory()
	cat := newMemCatalog(
		model.CatalogDrug{ID: 1, EnglishName: "Panadol Extra", ArabicName: "بنادول", Barcode: "6221 000 1234"},
		model.CatalogDrug{ID: 2, EnglishName: "Unknown", Barcode: "0000"},
	)
	d := &recordingDispatcher{}
	n := &recordingNotifier{}
	svc := NewInventoryService(inv, cat, d, cache.NewLocalReputation(), n, quietLogger()).(*inventoryService)
	return svc, inv, d, n
}

func TestFullCancelArchivesRemainingAndDeletes(t *testing.T) {
	svc, inv, _, n := newInventoryFixture()
	offer := inv.addOffer(model.Offer{PharmacyID: pharmacyA, EnglishName: "Panadol", Quantity: 7, Price: decimal.NewFromInt(12)})

	res, err := svc.FullCancel(context.Background(), model.Session{PharmacyID: pharmacyA}, model.KindOffer, offer.ID, model.ActionInternalSale)
	if err != nil {
		t.Fatalf("FullCancel: %v", err)
	}
	if res.Archive.Quantity != 7 || res.Archive.ActionType != model.ActionInternalSale {
		t.Fatalf("archive = %+v", res.Archive)
	}
	if !res.Retired {
		t.Fatal("item should be retired")
	}
	if _, err := inv.FindOffer(context.Background(), offer.ID); err == nil {
		t.Fatal("offer still present after full cancel")
	}
	if len(inv.archive) != 1 {
		t.Fatalf("archive rows = %d, want 1", len(inv.archive))
	}
	if len(n.events) != 1 || n.events[0].Type != EventInventoryUpdate {
		t.Fatalf("events = %+v", n.events)
	}
}

func TestDeduct(t *testing.T) {
	tests := []struct {
		name      string
		qty       int
		wantErr   error
		remaining int
		archived  int
	}{
		{name: "partial", qty: 3, remaining: 7, archived: 1},
		{name: "exact retires", qty: 10, remaining: 0, archived: 1},
		{name: "more than available", qty: 11, wantErr: model.ErrInsufficientQuantity, remaining: 10},
		{name: "zero", qty: 0, wantErr: model.ErrInvalidQuantity, remaining: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, inv, _, _ := newInventoryFixture()
			req := inv.addRequest(model.Request{PharmacyID: pharmacyA, Quantity: 10})

			_, err := svc.Deduct(context.Background(), model.Session{PharmacyID: pharmacyA}, model.KindRequest, req.ID, tt.qty, model.ActionPurchased)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(inv.archive) != tt.archived {
				t.Fatalf("archive rows = %d, want %d", len(inv.archive), tt.archived)
			}
			got, findErr := inv.FindRequest(context.Background(), req.ID)
			if tt.remaining == 0 {
				if findErr == nil {
					t.Fatal("request should be deleted at zero")
				}
				return
			}
			if findErr != nil || got.Quantity != tt.remaining {
				t.Fatalf("remaining = %v (%v), want %d", got, findErr, tt.remaining)
			}
		})
	}
}

func TestOwnerActionsAreKindSpecific(t *testing.T) {
	svc, inv, _, _ := newInventoryFixture()
	offer := inv.addOffer(model.Offer{PharmacyID: pharmacyA, Quantity: 2})

	_, err := svc.Deduct(context.Background(), model.Session{PharmacyID: pharmacyA}, model.KindOffer, offer.ID, 1, model.ActionPurchased)
	if !errors.Is(err, model.ErrInvalidActionType) {
		t.Fatalf("err = %v, want ErrInvalidActionType", err)
	}
	_, err = svc.Deduct(context.Background(), model.Session{PharmacyID: pharmacyA}, model.KindOffer, offer.ID, 1, model.ActionMarketplaceSale)
	if !errors.Is(err, model.ErrInvalidActionType) {
		t.Fatalf("marketplace label accepted for owner action: %v", err)
	}
}

func TestConsumeRejectsNonOwner(t *testing.T) {
	svc, inv, _, _ := newInventoryFixture()
	offer := inv.addOffer(model.Offer{PharmacyID: pharmacyA, Quantity: 2})

	_, err := svc.FullCancel(context.Background(), model.Session{PharmacyID: pharmacyB}, model.KindOffer, offer.ID, model.ActionTransfer)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if len(inv.archive) != 0 {
		t.Fatal("archive written for a rejected cancel")
	}
}

func TestRestockDoesNotArchive(t *testing.T) {
	svc, inv, _, _ := newInventoryFixture()
	offer := inv.addOffer(model.Offer{PharmacyID: pharmacyA, Quantity: 2})

	qty, err := svc.Restock(context.Background(), model.Session{PharmacyID: pharmacyA}, model.KindOffer, offer.ID, 5)
	if err != nil || qty != 7 {
		t.Fatalf("Restock = %d, %v", qty, err)
	}
	if len(inv.archive) != 0 {
		t.Fatal("restock must not archive")
	}
}

func TestCreateOfferDuplicateNeedsConfirmation(t *testing.T) {
	svc, inv, d, _ := newInventoryFixture()
	inv.addOffer(model.Offer{PharmacyID: pharmacyA, Barcode: "62210001234", ExpiryDate: "2027-05", Quantity: 1})
	in := OfferInput{DrugID: 1, ExpiryDate: "2027-05", Quantity: 4, Price: decimal.NewFromInt(30), Discount: 10}
	sess := model.Session{PharmacyID: pharmacyA}

	if err := svc.CreateOffer(context.Background(), sess, in); !errors.Is(err, ErrDuplicateOffer) {
		t.Fatalf("err = %v, want ErrDuplicateOffer", err)
	}
	if len(d.offers) != 0 {
		t.Fatal("workflow called before confirmation")
	}

	in.ConfirmDuplicate = true
	if err := svc.CreateOffer(context.Background(), sess, in); err != nil {
		t.Fatalf("confirmed CreateOffer: %v", err)
	}
	if len(d.offers) != 1 || d.offers[0].Barcode != "62210001234" || d.offers[0].PharmacyID != pharmacyA {
		t.Fatalf("payload = %+v", d.offers)
	}
}

func TestCreateOfferValidation(t *testing.T) {
	svc, _, d, _ := newInventoryFixture()
	sess := model.Session{PharmacyID: pharmacyA}
	valid := OfferInput{DrugID: 1, ExpiryDate: "2027-05-01", Quantity: 1, Price: decimal.NewFromFloat(9.5)}

	cases := map[string]func(*OfferInput){
		"bad expiry":     func(in *OfferInput) { in.ExpiryDate = "05/2027" },
		"zero quantity":  func(in *OfferInput) { in.Quantity = 0 },
		"zero price":     func(in *OfferInput) { in.Price = decimal.Zero },
		"discount > 100": func(in *OfferInput) { in.Discount = 101 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			if err := svc.CreateOffer(context.Background(), sess, in); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	in := valid
	in.DrugID = 2
	if err := svc.CreateOffer(context.Background(), sess, in); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("zero barcode: err = %v, want ErrInvalidSelection", err)
	}
	if len(d.offers) != 0 {
		t.Fatalf("workflow called for invalid input: %+v", d.offers)
	}
}

func TestWorkflowFailureSurfaces(t *testing.T) {
	svc, _, d, n := newInventoryFixture()
	d.err = errors.New("workflow down")

	err := svc.CreateRequest(context.Background(), model.Session{PharmacyID: pharmacyA}, RequestInput{DrugID: 1, Quantity: 2})
	if err == nil {
		t.Fatal("expected workflow error")
	}
	if len(n.events) != 0 {
		t.Fatal("event published for failed create")
	}
}

func TestEditRequestOwnerOnly(t *testing.T) {
	svc, inv, _, _ := newInventoryFixture()
	req := inv.addRequest(model.Request{PharmacyID: pharmacyA, Quantity: 3})

	if _, err := svc.EditRequest(context.Background(), model.Session{PharmacyID: pharmacyB}, req.ID, RequestEdit{Quantity: 9}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	got, err := svc.EditRequest(context.Background(), model.Session{PharmacyID: pharmacyA}, req.ID, RequestEdit{Quantity: 9})
	if err != nil || got.Quantity != 9 {
		t.Fatalf("EditRequest = %+v, %v", got, err)
	}
}
