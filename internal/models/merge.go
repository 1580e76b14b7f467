package models

import (
	"encoding/json"
	"fmt"
)

// snapshotOverlay mirrors the UserData wire shape with pointer fields so a
// missing top-level collection can be told apart from an empty one. A field
// present in the payload replaces the base value wholesale; a missing field
// keeps the base value. Settings are the exception: they are rebuilt from
// defaults overlaid with the payload's settings, key by key for priceConfig,
// so older persisted shapes pick up new defaults.
type snapshotOverlay struct {
	Transactions *[]Transaction  `json:"transactions"`
	Stock        *StockState     `json:"stock"`
	Damaged      *StockState     `json:"damaged"`
	StockLogs    *[]StockLog     `json:"stockLogs"`
	FuelLogs     *[]FuelLog      `json:"fuelLogs"`
	Settings     json.RawMessage `json:"settings"`
	LastSync     *string         `json:"lastSync"`
}

// OverlaySnapshot applies a raw snapshot payload on top of base. With
// base = DefaultUserData() this is the load/import path; with base = the
// current in-memory snapshot it is the remote-wins pull merge.
func OverlaySnapshot(base UserData, raw []byte) (UserData, error) {
	var overlay snapshotOverlay
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return UserData{}, fmt.Errorf("decode snapshot: %w", err)
	}

	merged := base.Clone()
	if overlay.Transactions != nil {
		merged.Transactions = *overlay.Transactions
	}
	if overlay.Stock != nil {
		merged.Stock = *overlay.Stock
	}
	if overlay.Damaged != nil {
		merged.Damaged = *overlay.Damaged
	}
	if overlay.StockLogs != nil {
		merged.StockLogs = *overlay.StockLogs
	}
	if overlay.FuelLogs != nil {
		merged.FuelLogs = *overlay.FuelLogs
	}
	if len(overlay.Settings) > 0 {
		settings, err := mergeSettingsWithDefaults(overlay.Settings)
		if err != nil {
			return UserData{}, err
		}
		merged.Settings = settings
	}
	if overlay.LastSync != nil {
		merged.LastSync = *overlay.LastSync
	}

	merged.Normalize()
	return merged, nil
}

// mergeSettingsWithDefaults decodes raw settings into a defaults-prefilled
// value. Unmarshal into a prefilled struct keeps defaults for absent keys,
// and unmarshal into the non-nil priceConfig map merges category by
// category, so a payload missing the multi tiers keeps the default ones.
func mergeSettingsWithDefaults(raw json.RawMessage) (Settings, error) {
	settings := DefaultSettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if settings.PriceConfig == nil {
		settings.PriceConfig = DefaultPriceConfig()
	} else {
		for simType, tiers := range DefaultPriceConfig() {
			if _, ok := settings.PriceConfig[simType]; !ok {
				settings.PriceConfig[simType] = tiers
			}
		}
	}
	return settings, nil
}

// Normalize backfills nil collections and missing SIM categories so every
// snapshot observed by callers has the full shape.
func (data *UserData) Normalize() {
	if data.Transactions == nil {
		data.Transactions = []Transaction{}
	}
	if data.StockLogs == nil {
		data.StockLogs = []StockLog{}
	}
	if data.FuelLogs == nil {
		data.FuelLogs = []FuelLog{}
	}
	if data.Stock == nil {
		data.Stock = emptyStockState()
	}
	if data.Damaged == nil {
		data.Damaged = emptyStockState()
	}
	for _, simType := range SimTypes() {
		if _, ok := data.Stock[simType]; !ok {
			data.Stock[simType] = 0
		}
		if _, ok := data.Damaged[simType]; !ok {
			data.Damaged[simType] = 0
		}
	}
	if data.Settings.PriceConfig == nil {
		data.Settings.PriceConfig = DefaultPriceConfig()
	}
}

// SettingsPatch is a partial settings update. Nil fields are left untouched;
// priceConfig entries are merged per category so omitting a SIM type
// preserves its existing tiers.
type SettingsPatch struct {
	DisplayName       *string     `json:"name"`
	WeeklyTarget      *float64    `json:"weeklyTarget"`
	Theme             *string     `json:"theme"`
	PreferredFuelType *FuelType   `json:"preferredFuelType"`
	PriceConfig       PriceConfig `json:"priceConfig"`
}

func (settings Settings) Apply(patch SettingsPatch) Settings {
	updated := settings
	updated.PriceConfig = settings.PriceConfig.Clone()

	if patch.DisplayName != nil {
		updated.DisplayName = *patch.DisplayName
	}
	if patch.WeeklyTarget != nil {
		updated.WeeklyTarget = *patch.WeeklyTarget
	}
	if patch.Theme != nil {
		updated.Theme = *patch.Theme
	}
	if patch.PreferredFuelType != nil {
		updated.PreferredFuelType = *patch.PreferredFuelType
	}
	for simType, tiers := range patch.PriceConfig {
		updated.PriceConfig[simType] = tiers
	}
	return updated
}
