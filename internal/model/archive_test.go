package model

import "testing"

func TestOwnerActionVocabulary(t *testing.T) {
	for _, a := range []ActionType{ActionInternalSale, ActionTransfer, ActionSaleAr, ActionInternalSaleAr, ActionTransferAr} {
		if !ValidOwnerAction(KindOffer, a) {
			t.Errorf("%q should be a valid offer action", a)
		}
		if ValidOwnerAction(KindRequest, a) {
			t.Errorf("%q should not be a valid request action", a)
		}
	}
	for _, a := range []ActionType{ActionPurchased, ActionTransferred, ActionPurchasedAr, ActionTransferredAr} {
		if !ValidOwnerAction(KindRequest, a) {
			t.Errorf("%q should be a valid request action", a)
		}
	}
	if ValidOwnerAction(KindOffer, ActionMarketplaceSale) {
		t.Error("marketplace label must not be selectable by the owner")
	}
}

func TestOwnerActionsReturnsCopy(t *testing.T) {
	actions := OwnerActions(KindOffer)
	actions[0] = "tampered"
	if OwnerActions(KindOffer)[0] != ActionInternalSale {
		t.Error("OwnerActions leaked its backing slice")
	}
}
