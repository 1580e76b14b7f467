package models

import "time"

type SimType string

const (
	SimJawwy SimType = "jawwy"
	SimSawa  SimType = "sawa"
	SimMulti SimType = "multi"
)

func SimTypes() []SimType {
	return []SimType{SimJawwy, SimSawa, SimMulti}
}

func (simType SimType) Valid() bool {
	switch simType {
	case SimJawwy, SimSawa, SimMulti:
		return true
	default:
		return false
	}
}

// TransactionKind is either a stock-backed SIM category or one of the two
// non-stock categories: "issue" (unresolved attempt) and "device" (device
// commission).
type TransactionKind string

const (
	KindIssue  TransactionKind = "issue"
	KindDevice TransactionKind = "device"
)

func (kind TransactionKind) StockBacked() bool {
	return SimType(kind).Valid()
}

func (kind TransactionKind) Valid() bool {
	return kind.StockBacked() || kind == KindIssue || kind == KindDevice
}

type Transaction struct {
	ID       int64           `json:"id"`
	Date     time.Time       `json:"date"`
	Kind     TransactionKind `json:"type"`
	Amount   float64         `json:"amount"`
	Quantity int             `json:"quantity"`
}

// StockState maps each SIM category to a count. It exists in two parallel
// instances per user: good stock and damaged stock. Counts may go negative;
// callers are expected to pre-check before mutating.
type StockState map[SimType]int

func (state StockState) Clone() StockState {
	cloned := make(StockState, len(state))
	for simType, count := range state {
		cloned[simType] = count
	}
	return cloned
}

type StockAction string

const (
	StockActionAdd           StockAction = "add"
	StockActionReturnCompany StockAction = "return_company"
	StockActionToDamaged     StockAction = "to_damaged"
	StockActionRecover       StockAction = "recover"
	StockActionFlush         StockAction = "flush"
)

func (action StockAction) Valid() bool {
	switch action {
	case StockActionAdd, StockActionReturnCompany, StockActionToDamaged, StockActionRecover, StockActionFlush:
		return true
	default:
		return false
	}
}

// StockLog is an append-only audit record, newest first. Logs are never
// mutated or deleted.
type StockLog struct {
	ID       int64       `json:"id"`
	Date     time.Time   `json:"date"`
	SimType  SimType     `json:"type"`
	Quantity int         `json:"quantity"`
	Action   StockAction `json:"action"`
}

type FuelType string

const (
	Fuel91     FuelType = "91"
	Fuel95     FuelType = "95"
	FuelDiesel FuelType = "diesel"
)

// FuelPriceTable holds the per-liter price used to derive liters at the
// moment a fuel log is created. Liters are never recomputed if prices change.
var FuelPriceTable = map[FuelType]float64{
	Fuel91:     2.18,
	Fuel95:     2.33,
	FuelDiesel: 1.15,
}

func (fuelType FuelType) Valid() bool {
	_, ok := FuelPriceTable[fuelType]
	return ok
}

type FuelLog struct {
	ID       int64     `json:"id"`
	Date     time.Time `json:"date"`
	FuelType FuelType  `json:"fuelType"`
	Amount   float64   `json:"amount"`
	Liters   float64   `json:"liters"`
	Km       float64   `json:"km"`
}

// CommissionTiers holds the three commission amounts for short, medium and
// long activation waits.
type CommissionTiers [3]float64

type PriceConfig map[SimType]CommissionTiers

func (config PriceConfig) Clone() PriceConfig {
	cloned := make(PriceConfig, len(config))
	for simType, tiers := range config {
		cloned[simType] = tiers
	}
	return cloned
}

type Settings struct {
	DisplayName       string      `json:"name"`
	WeeklyTarget      float64     `json:"weeklyTarget"`
	Theme             string      `json:"theme"`
	PreferredFuelType FuelType    `json:"preferredFuelType"`
	PriceConfig       PriceConfig `json:"priceConfig"`
}

// UserData is the full isolated snapshot for one identity. Collections are
// ordered newest first.
type UserData struct {
	Transactions []Transaction `json:"transactions"`
	Stock        StockState    `json:"stock"`
	Damaged      StockState    `json:"damaged"`
	StockLogs    []StockLog    `json:"stockLogs"`
	FuelLogs     []FuelLog     `json:"fuelLogs"`
	Settings     Settings      `json:"settings"`
	LastSync     string        `json:"lastSync,omitempty"`
}

func DefaultPriceConfig() PriceConfig {
	return PriceConfig{
		SimJawwy: {30, 25, 20},
		SimSawa:  {28, 24, 20},
		SimMulti: {28, 24, 20},
	}
}

func DefaultSettings() Settings {
	return Settings{
		DisplayName:       "المندوب",
		WeeklyTarget:      3000,
		Theme:             "light",
		PreferredFuelType: Fuel91,
		PriceConfig:       DefaultPriceConfig(),
	}
}

func emptyStockState() StockState {
	return StockState{SimJawwy: 0, SimSawa: 0, SimMulti: 0}
}

func DefaultUserData() UserData {
	return UserData{
		Transactions: []Transaction{},
		Stock:        emptyStockState(),
		Damaged:      emptyStockState(),
		StockLogs:    []StockLog{},
		FuelLogs:     []FuelLog{},
		Settings:     DefaultSettings(),
	}
}

func (data UserData) Clone() UserData {
	cloned := data
	cloned.Transactions = append([]Transaction(nil), data.Transactions...)
	cloned.Stock = data.Stock.Clone()
	cloned.Damaged = data.Damaged.Clone()
	cloned.StockLogs = append([]StockLog(nil), data.StockLogs...)
	cloned.FuelLogs = append([]FuelLog(nil), data.FuelLogs...)
	cloned.Settings.PriceConfig = data.Settings.PriceConfig.Clone()
	return cloned
}
