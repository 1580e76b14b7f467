package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mistermandob/mandob/internal/models"
	"github.com/mistermandob/mandob/internal/remote"
)

const (
	SyncStateIdle    = "idle"
	SyncStateSyncing = "syncing"

	DefaultDebounce = 3 * time.Second
)

type RemoteStore interface {
	FetchSnapshot(ctx context.Context, username string) (*remote.Envelope, error)
	PushSnapshot(ctx context.Context, payload remote.PushPayload) error
}

type SessionState interface {
	CurrentUser() (models.User, bool)
	Snapshot() (models.UserData, bool)
	MergeRemoteSnapshot(raw json.RawMessage) error
	SetLastSync(at time.Time)
}

type IdentityListStore interface {
	List() ([]models.User, error)
	Replace(users []models.User) error
}

type SyncStatus struct {
	State    string    `json:"state"`
	Dirty    bool      `json:"dirty"`
	LastSync time.Time `json:"lastSync"`
}

// SyncService coordinates when local state moves to the remote store and
// back. Mutations mark the snapshot dirty and (re)start one coalescing
// debounce timer; only the latest state is ever pushed. Manual push/pull
// bypass the timer. All network failures downgrade to a boolean result.
type SyncService struct {
	remote   RemoteStore
	session  SessionState
	identity IdentityListStore
	deviceID string

	mu       sync.Mutex
	debounce time.Duration
	timer    *time.Timer
	syncing  bool
	dirty    bool
	lastSync time.Time
}

func NewSyncService(remoteStore RemoteStore, session SessionState, identity IdentityListStore, deviceID string, debounce time.Duration) *SyncService {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &SyncService{
		remote:   remoteStore,
		session:  session,
		identity: identity,
		deviceID: deviceID,
		debounce: debounce,
	}
}

// MarkDirty restarts the debounce timer. Rapid mutations coalesce into a
// single push once the quiet period elapses.
func (service *SyncService) MarkDirty() {
	service.mu.Lock()
	defer service.mu.Unlock()

	service.dirty = true
	if service.timer != nil {
		service.timer.Stop()
	}
	service.timer = time.AfterFunc(service.debounce, func() {
		service.PushNow(context.Background())
	})
}

// CancelPending drops any scheduled push, e.g. on logout.
func (service *SyncService) CancelPending() {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.timer != nil {
		service.timer.Stop()
		service.timer = nil
	}
	service.dirty = false
}

// PushNow uploads the current snapshot immediately, short-circuiting any
// pending timer. Admin pushes piggyback the identity list so other devices
// can discover new users. Returns false when there is no active session or
// the remote store is unreachable; local state is never affected by a
// failed push.
func (service *SyncService) PushNow(ctx context.Context) bool {
	user, ok := service.session.CurrentUser()
	if !ok {
		return false
	}
	data, ok := service.session.Snapshot()
	if !ok {
		return false
	}

	service.beginSync()
	now := time.Now().UTC()
	data.LastSync = now.Format(time.RFC3339)

	payload := remote.PushPayload{
		Username: user.Username,
		Data:     data,
		Meta:     &remote.PushMeta{DeviceID: service.deviceID, PushedAt: now},
	}
	if user.IsAdmin() {
		if identityList, err := service.identity.List(); err == nil {
			payload.IdentityList = identityList
		}
	}

	err := service.remote.PushSnapshot(ctx, payload)

	service.mu.Lock()
	service.syncing = false
	if err == nil {
		service.dirty = false
		service.lastSync = now
	}
	service.mu.Unlock()

	if err != nil {
		log.Printf("push to remote failed: %v", err)
		return false
	}

	service.session.SetLastSync(now)
	return true
}

// PullNow fetches the remote snapshot for the active identity and merges it
// in (remote wins per top-level collection). When the active identity is an
// admin, a successful pull also replaces the local identity list with the
// remote one; the admin's remote record is the canonical copy.
func (service *SyncService) PullNow(ctx context.Context) bool {
	user, ok := service.session.CurrentUser()
	if !ok {
		return false
	}

	service.beginSync()
	defer service.endSync()

	envelope, err := service.remote.FetchSnapshot(ctx, user.Username)
	if err != nil {
		log.Printf("pull from remote failed: %v", err)
		return false
	}
	if envelope.ErrorMarker != "" {
		log.Printf("no remote snapshot for %s: %s", user.Username, envelope.ErrorMarker)
		return false
	}

	if user.IsAdmin() && len(envelope.IdentityList) > 0 {
		if err := service.identity.Replace(envelope.IdentityList); err != nil {
			log.Printf("replacing identity list from remote failed: %v", err)
		}
	}

	if len(envelope.Data) == 0 {
		return false
	}
	if err := service.session.MergeRemoteSnapshot(envelope.Data); err != nil {
		log.Printf("merging remote snapshot failed: %v", err)
		return false
	}

	service.mu.Lock()
	service.lastSync = time.Now().UTC()
	service.mu.Unlock()
	return true
}

func (service *SyncService) Status() SyncStatus {
	service.mu.Lock()
	defer service.mu.Unlock()

	state := SyncStateIdle
	if service.syncing {
		state = SyncStateSyncing
	}
	return SyncStatus{State: state, Dirty: service.dirty, LastSync: service.lastSync}
}

func (service *SyncService) beginSync() {
	service.mu.Lock()
	if service.timer != nil {
		service.timer.Stop()
		service.timer = nil
	}
	service.syncing = true
	service.mu.Unlock()
}

func (service *SyncService) endSync() {
	service.mu.Lock()
	service.syncing = false
	service.mu.Unlock()
}
