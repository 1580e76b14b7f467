package services

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/mistermandob/mandob/internal/models"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidSimType  = errors.New("invalid sim type")
	ErrInvalidAction   = errors.New("invalid stock action")
	ErrInvalidFuelType = errors.New("invalid fuel type")
)

type SnapshotStore interface {
	Load(username string) (models.UserData, bool, error)
	Save(username string, data models.UserData) error
}

type SessionStore interface {
	Save(username string) error
	Clear() error
}

// SyncScheduler receives a dirty mark after every mutation; scheduling
// policy (debounce, coalescing) lives entirely behind it.
type SyncScheduler interface {
	MarkDirty()
}

// SessionService owns the active identity and its in-memory snapshot. Every
// mutation updates the snapshot, writes it synchronously to local storage
// and marks it dirty for the sync coordinator. Mutations never wait on the
// network.
type SessionService struct {
	snapshots SnapshotStore
	sessions  SessionStore

	mu        sync.Mutex
	scheduler SyncScheduler
	current   *models.User
	data      models.UserData
	dataReady bool
}

func NewSessionService(snapshots SnapshotStore, sessions SessionStore) *SessionService {
	return &SessionService{
		snapshots: snapshots,
		sessions:  sessions,
		data:      models.DefaultUserData(),
	}
}

// SetScheduler wires the sync coordinator in after construction; the two
// services reference each other.
func (service *SessionService) SetScheduler(scheduler SyncScheduler) {
	service.mu.Lock()
	defer service.mu.Unlock()
	service.scheduler = scheduler
}

// Activate loads (or initializes) the user's snapshot and makes the
// identity current, remembering it for the next process start.
func (service *SessionService) Activate(user models.User) (models.UserData, error) {
	data, _, err := service.snapshots.Load(user.Username)
	if err != nil {
		log.Printf("loading snapshot for %s failed, starting from defaults: %v", user.Username, err)
		data = models.DefaultUserData()
		data.Settings.DisplayName = user.Username
	}

	service.mu.Lock()
	service.current = &user
	service.data = data
	service.dataReady = true
	service.mu.Unlock()

	if err := service.sessions.Save(user.Username); err != nil {
		log.Printf("remembering session for %s failed: %v", user.Username, err)
	}
	return data.Clone(), nil
}

func (service *SessionService) Logout() {
	service.mu.Lock()
	service.current = nil
	service.data = models.DefaultUserData()
	service.dataReady = false
	service.mu.Unlock()

	if err := service.sessions.Clear(); err != nil {
		log.Printf("clearing remembered session failed: %v", err)
	}
}

func (service *SessionService) CurrentUser() (models.User, bool) {
	service.mu.Lock()
	defer service.mu.Unlock()
	if service.current == nil {
		return models.User{}, false
	}
	return *service.current, true
}

func (service *SessionService) Snapshot() (models.UserData, bool) {
	service.mu.Lock()
	defer service.mu.Unlock()
	if !service.dataReady {
		return models.UserData{}, false
	}
	return service.data.Clone(), true
}

// AddTransaction prepends a new transaction and, for stock-backed kinds,
// decrements stock by quantity. No floor check happens here; callers
// pre-validate (see StockPolicy).
func (service *SessionService) AddTransaction(kind models.TransactionKind, amount float64, quantity int) (models.Transaction, error) {
	if !kind.Valid() {
		return models.Transaction{}, ErrInvalidKind
	}
	if quantity < 1 {
		quantity = 1
	}

	transaction := models.Transaction{
		ID:       models.NextRecordID(),
		Date:     time.Now().UTC(),
		Kind:     kind,
		Amount:   amount,
		Quantity: quantity,
	}

	err := service.mutate(func(data *models.UserData) {
		data.Transactions = append([]models.Transaction{transaction}, data.Transactions...)
		if kind.StockBacked() {
			data.Stock[models.SimType(kind)] -= quantity
		}
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return transaction, nil
}

// RemoveTransaction deletes by id, restoring stock for stock-backed kinds.
// Unknown ids are a no-op.
func (service *SessionService) RemoveTransaction(id int64) error {
	return service.mutate(func(data *models.UserData) {
		for index, transaction := range data.Transactions {
			if transaction.ID != id {
				continue
			}
			data.Transactions = append(data.Transactions[:index], data.Transactions[index+1:]...)
			if transaction.Kind.StockBacked() {
				data.Stock[models.SimType(transaction.Kind)] += transaction.Quantity
			}
			return
		}
	})
}

// UpdateStock applies one of the five deterministic deltas and appends a
// stock log. Negative stock is representable; pre-checks are the caller's
// responsibility.
func (service *SessionService) UpdateStock(simType models.SimType, quantity int, action models.StockAction) (models.StockLog, error) {
	if !simType.Valid() {
		return models.StockLog{}, ErrInvalidSimType
	}
	if !action.Valid() {
		return models.StockLog{}, ErrInvalidAction
	}

	entry := models.StockLog{
		ID:       models.NextRecordID(),
		Date:     time.Now().UTC(),
		SimType:  simType,
		Quantity: quantity,
		Action:   action,
	}

	err := service.mutate(func(data *models.UserData) {
		switch action {
		case models.StockActionAdd:
			data.Stock[simType] += quantity
		case models.StockActionReturnCompany:
			data.Stock[simType] -= quantity
		case models.StockActionToDamaged:
			data.Stock[simType] -= quantity
			data.Damaged[simType] += quantity
		case models.StockActionRecover:
			data.Damaged[simType] -= quantity
			data.Stock[simType] += quantity
		case models.StockActionFlush:
			data.Damaged[simType] -= quantity
		}
		data.StockLogs = append([]models.StockLog{entry}, data.StockLogs...)
	})
	if err != nil {
		return models.StockLog{}, err
	}
	return entry, nil
}

// AddFuelLog derives liters from the price table at creation time; the
// value is never recomputed if prices change later.
func (service *SessionService) AddFuelLog(fuelType models.FuelType, amount float64, km float64) (models.FuelLog, error) {
	price, ok := models.FuelPriceTable[fuelType]
	if !ok {
		return models.FuelLog{}, ErrInvalidFuelType
	}

	entry := models.FuelLog{
		ID:       models.NextRecordID(),
		Date:     time.Now().UTC(),
		FuelType: fuelType,
		Amount:   amount,
		Liters:   math.Round(amount/price*100) / 100,
		Km:       km,
	}

	err := service.mutate(func(data *models.UserData) {
		data.FuelLogs = append([]models.FuelLog{entry}, data.FuelLogs...)
	})
	if err != nil {
		return models.FuelLog{}, err
	}
	return entry, nil
}

func (service *SessionService) RemoveFuelLog(id int64) error {
	return service.mutate(func(data *models.UserData) {
		for index, entry := range data.FuelLogs {
			if entry.ID == id {
				data.FuelLogs = append(data.FuelLogs[:index], data.FuelLogs[index+1:]...)
				return
			}
		}
	})
}

// UpdateSettings shallow-merges the patch; priceConfig merges category by
// category so an omitted SIM type keeps its existing tiers.
func (service *SessionService) UpdateSettings(patch models.SettingsPatch) (models.Settings, error) {
	var updated models.Settings
	err := service.mutate(func(data *models.UserData) {
		data.Settings = data.Settings.Apply(patch)
		updated = data.Settings
	})
	if err != nil {
		return models.Settings{}, err
	}
	return updated, nil
}

// MergeRemoteSnapshot folds a pulled remote snapshot into the active one:
// remote wins wholesale per top-level collection, settings get the
// defaults-backfill deep merge. The merged state persists locally and is
// marked dirty, matching the auto-save behavior of any other change.
func (service *SessionService) MergeRemoteSnapshot(raw json.RawMessage) error {
	service.mu.Lock()
	if !service.dataReady || service.current == nil {
		service.mu.Unlock()
		return ErrNoActiveSession
	}
	merged, err := models.OverlaySnapshot(service.data, raw)
	if err != nil {
		service.mu.Unlock()
		return err
	}
	service.data = merged
	username := service.current.Username
	persisted := merged.Clone()
	scheduler := service.scheduler
	service.mu.Unlock()

	if err := service.snapshots.Save(username, persisted); err != nil {
		log.Printf("persisting merged snapshot for %s failed: %v", username, err)
	}
	if scheduler != nil {
		scheduler.MarkDirty()
	}
	return nil
}

// ReplaceSnapshot wholesale-replaces the active snapshot (import path).
func (service *SessionService) ReplaceSnapshot(data models.UserData) error {
	return service.mutate(func(current *models.UserData) {
		data.Normalize()
		*current = data.Clone()
	})
}

// SetLastSync records a successful push. Deliberately not a dirty-marking
// mutation: a push must not schedule another push.
func (service *SessionService) SetLastSync(at time.Time) {
	service.mu.Lock()
	if !service.dataReady || service.current == nil {
		service.mu.Unlock()
		return
	}
	service.data.LastSync = at.UTC().Format(time.RFC3339)
	username := service.current.Username
	persisted := service.data.Clone()
	service.mu.Unlock()

	if err := service.snapshots.Save(username, persisted); err != nil {
		log.Printf("persisting last sync for %s failed: %v", username, err)
	}
}

// mutate runs a mutation on the active snapshot, persists synchronously and
// marks the snapshot dirty. Persistence errors are logged and swallowed:
// the in-memory state stays correct and the next mutation retries the
// write.
func (service *SessionService) mutate(apply func(data *models.UserData)) error {
	service.mu.Lock()
	if !service.dataReady || service.current == nil {
		service.mu.Unlock()
		return ErrNoActiveSession
	}
	apply(&service.data)
	username := service.current.Username
	persisted := service.data.Clone()
	scheduler := service.scheduler
	service.mu.Unlock()

	if err := service.snapshots.Save(username, persisted); err != nil {
		log.Printf("persisting snapshot for %s failed: %v", username, err)
	}
	if scheduler != nil {
		scheduler.MarkDirty()
	}
	return nil
}
