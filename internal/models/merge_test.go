package models

import (
	"reflect"
	"testing"
)

func TestOverlaySnapshotBackfillsMissingPriceConfigCategory(t *testing.T) {
	raw := []byte(`{
		"settings": {
			"name": "sara",
			"priceConfig": {
				"jawwy": [31, 26, 21],
				"sawa": [29, 23, 19]
			}
		}
	}`)

	merged, err := OverlaySnapshot(DefaultUserData(), raw)
	if err != nil {
		t.Fatalf("OverlaySnapshot() unexpected error: %v", err)
	}

	if merged.Settings.PriceConfig[SimJawwy] != (CommissionTiers{31, 26, 21}) {
		t.Fatalf("expected jawwy tiers preserved, got %v", merged.Settings.PriceConfig[SimJawwy])
	}
	if merged.Settings.PriceConfig[SimSawa] != (CommissionTiers{29, 23, 19}) {
		t.Fatalf("expected sawa tiers preserved, got %v", merged.Settings.PriceConfig[SimSawa])
	}
	if merged.Settings.PriceConfig[SimMulti] != DefaultPriceConfig()[SimMulti] {
		t.Fatalf("expected multi tiers backfilled from defaults, got %v", merged.Settings.PriceConfig[SimMulti])
	}
	if merged.Settings.WeeklyTarget != DefaultSettings().WeeklyTarget {
		t.Fatalf("expected weekly target default, got %v", merged.Settings.WeeklyTarget)
	}
}

func TestOverlaySnapshotRemoteWinsPerCollection(t *testing.T) {
	base := DefaultUserData()
	base.Transactions = []Transaction{{ID: 1, Kind: KindIssue, Quantity: 1}}
	base.FuelLogs = []FuelLog{{ID: 2, FuelType: Fuel91}}
	base.Stock[SimJawwy] = 9

	raw := []byte(`{
		"transactions": [{"id": 10, "type": "device", "amount": 50, "quantity": 1}],
		"stock": {"jawwy": 3, "sawa": 1, "multi": 0}
	}`)

	merged, err := OverlaySnapshot(base, raw)
	if err != nil {
		t.Fatalf("OverlaySnapshot() unexpected error: %v", err)
	}

	if len(merged.Transactions) != 1 || merged.Transactions[0].ID != 10 {
		t.Fatalf("expected transactions replaced wholesale, got %+v", merged.Transactions)
	}
	if merged.Stock[SimJawwy] != 3 {
		t.Fatalf("expected remote stock to win, got %d", merged.Stock[SimJawwy])
	}
	if len(merged.FuelLogs) != 1 || merged.FuelLogs[0].ID != 2 {
		t.Fatalf("expected fuel logs kept when absent from payload, got %+v", merged.FuelLogs)
	}
}

func TestOverlaySnapshotRejectsMalformedPayload(t *testing.T) {
	if _, err := OverlaySnapshot(DefaultUserData(), []byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestSettingsApplyPreservesOmittedPriceCategories(t *testing.T) {
	settings := DefaultSettings()
	theme := "dark"

	updated := settings.Apply(SettingsPatch{
		Theme:       &theme,
		PriceConfig: PriceConfig{SimJawwy: {40, 35, 30}},
	})

	if updated.Theme != "dark" {
		t.Fatalf("expected theme updated, got %q", updated.Theme)
	}
	if updated.PriceConfig[SimJawwy] != (CommissionTiers{40, 35, 30}) {
		t.Fatalf("expected jawwy tiers updated, got %v", updated.PriceConfig[SimJawwy])
	}
	if updated.PriceConfig[SimSawa] != settings.PriceConfig[SimSawa] {
		t.Fatalf("expected sawa tiers untouched, got %v", updated.PriceConfig[SimSawa])
	}
	if updated.DisplayName != settings.DisplayName {
		t.Fatalf("expected display name untouched, got %q", updated.DisplayName)
	}
	// The original value must not be mutated through the shared map.
	if settings.PriceConfig[SimJawwy] != DefaultPriceConfig()[SimJawwy] {
		t.Fatalf("expected source settings untouched, got %v", settings.PriceConfig[SimJawwy])
	}
}

func TestCloneIsDeep(t *testing.T) {
	data := DefaultUserData()
	data.Transactions = []Transaction{{ID: 1, Kind: TransactionKind(SimJawwy), Quantity: 2}}

	cloned := data.Clone()
	cloned.Stock[SimJawwy] = 99
	cloned.Transactions[0].ID = 7
	cloned.Settings.PriceConfig[SimJawwy] = CommissionTiers{1, 1, 1}

	if data.Stock[SimJawwy] == 99 {
		t.Fatal("expected stock map cloned")
	}
	if data.Transactions[0].ID == 7 {
		t.Fatal("expected transactions cloned")
	}
	if data.Settings.PriceConfig[SimJawwy] == (CommissionTiers{1, 1, 1}) {
		t.Fatal("expected price config cloned")
	}
	if !reflect.DeepEqual(data.Stock, StockState{SimJawwy: 0, SimSawa: 0, SimMulti: 0}) {
		t.Fatalf("unexpected stock after clone mutation: %v", data.Stock)
	}
}

func TestNextRecordIDStrictlyIncreasing(t *testing.T) {
	previous := NextRecordID()
	for index := 0; index < 1000; index++ {
		next := NextRecordID()
		if next <= previous {
			t.Fatalf("expected strictly increasing ids, got %d after %d", next, previous)
		}
		previous = next
	}
}
