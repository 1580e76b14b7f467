package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mistermandob/mandob/internal/models"
	"github.com/mistermandob/mandob/internal/remote"
)

type stubRemoteStore struct {
	mu       sync.Mutex
	envelope *remote.Envelope
	fetchErr error
	pushErr  error
	pushed   []remote.PushPayload
	fetches  int
}

func (stub *stubRemoteStore) FetchSnapshot(ctx context.Context, username string) (*remote.Envelope, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.fetches++
	if stub.fetchErr != nil {
		return nil, stub.fetchErr
	}
	return stub.envelope, nil
}

func (stub *stubRemoteStore) PushSnapshot(ctx context.Context, payload remote.PushPayload) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.pushErr != nil {
		return stub.pushErr
	}
	stub.pushed = append(stub.pushed, payload)
	return nil
}

func (stub *stubRemoteStore) pushCount() int {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return len(stub.pushed)
}

func (stub *stubRemoteStore) lastPush(t *testing.T) remote.PushPayload {
	t.Helper()
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if len(stub.pushed) == 0 {
		t.Fatal("expected at least one push")
	}
	return stub.pushed[len(stub.pushed)-1]
}

type stubSessionState struct {
	mu       sync.Mutex
	user     models.User
	active   bool
	data     models.UserData
	merged   []json.RawMessage
	lastSync time.Time
}

func (stub *stubSessionState) CurrentUser() (models.User, bool) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.user, stub.active
}

func (stub *stubSessionState) Snapshot() (models.UserData, bool) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.data.Clone(), stub.active
}

func (stub *stubSessionState) MergeRemoteSnapshot(raw json.RawMessage) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.merged = append(stub.merged, raw)
	return nil
}

func (stub *stubSessionState) SetLastSync(at time.Time) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.lastSync = at
}

type stubIdentityListStore struct {
	mu       sync.Mutex
	users    []models.User
	replaced [][]models.User
}

func (stub *stubIdentityListStore) List() ([]models.User, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return append([]models.User(nil), stub.users...), nil
}

func (stub *stubIdentityListStore) Replace(users []models.User) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.replaced = append(stub.replaced, append([]models.User(nil), users...))
	stub.users = append([]models.User(nil), users...)
	return nil
}

func newSyncFixture(user models.User, active bool) (*SyncService, *stubRemoteStore, *stubSessionState, *stubIdentityListStore) {
	remoteStore := &stubRemoteStore{}
	session := &stubSessionState{user: user, active: active, data: models.DefaultUserData()}
	identity := &stubIdentityListStore{users: models.SeededUsers()}
	service := NewSyncService(remoteStore, session, identity, "device-1", 30*time.Millisecond)
	return service, remoteStore, session, identity
}

func TestPushNowAdminIncludesIdentityList(t *testing.T) {
	service, remoteStore, session, _ := newSyncFixture(models.SeededAdmin(), true)

	if !service.PushNow(context.Background()) {
		t.Fatal("expected push to succeed")
	}

	payload := remoteStore.lastPush(t)
	if payload.Username != models.SeededAdminUsername {
		t.Fatalf("expected push under admin username, got %q", payload.Username)
	}
	if len(payload.IdentityList) != 2 {
		t.Fatalf("expected identity list attached to admin push, got %d entries", len(payload.IdentityList))
	}
	if payload.Meta == nil || payload.Meta.DeviceID != "device-1" {
		t.Fatalf("expected device metadata, got %+v", payload.Meta)
	}
	if payload.Data.LastSync == "" {
		t.Fatal("expected lastSync stamped on pushed snapshot")
	}
	if session.lastSync.IsZero() {
		t.Fatal("expected session lastSync recorded after a successful push")
	}
}

func TestPushNowMemberExcludesIdentityList(t *testing.T) {
	service, remoteStore, _, _ := newSyncFixture(models.SeededMember(), true)

	if !service.PushNow(context.Background()) {
		t.Fatal("expected push to succeed")
	}
	if payload := remoteStore.lastPush(t); payload.IdentityList != nil {
		t.Fatalf("expected no identity list on member push, got %+v", payload.IdentityList)
	}
}

func TestPushNowFailureKeepsDirtyFlag(t *testing.T) {
	service, remoteStore, session, _ := newSyncFixture(models.SeededMember(), true)
	remoteStore.pushErr = errors.New("remote unavailable")
	service.MarkDirty()

	if service.PushNow(context.Background()) {
		t.Fatal("expected push to fail")
	}

	status := service.Status()
	if !status.Dirty {
		t.Fatal("expected dirty flag kept after failed push")
	}
	if status.State != SyncStateIdle {
		t.Fatalf("expected idle state after failed push, got %q", status.State)
	}
	if !session.lastSync.IsZero() {
		t.Fatal("expected session lastSync untouched after failed push")
	}
}

func TestPushNowWithoutSession(t *testing.T) {
	service, remoteStore, _, _ := newSyncFixture(models.User{}, false)

	if service.PushNow(context.Background()) {
		t.Fatal("expected push to report false with no active session")
	}
	if remoteStore.pushCount() != 0 {
		t.Fatalf("expected no network traffic, got %d pushes", remoteStore.pushCount())
	}
}

func TestPullNowMergesRemoteSnapshot(t *testing.T) {
	service, remoteStore, session, _ := newSyncFixture(models.SeededMember(), true)
	remoteStore.envelope = &remote.Envelope{Data: json.RawMessage(`{"stock": {"jawwy": 4}}`)}

	if !service.PullNow(context.Background()) {
		t.Fatal("expected pull to succeed")
	}
	if len(session.merged) != 1 {
		t.Fatalf("expected one merge, got %d", len(session.merged))
	}
	if service.Status().State != SyncStateIdle {
		t.Fatal("expected idle state after pull")
	}
	if service.Status().LastSync.IsZero() {
		t.Fatal("expected lastSync recorded after pull")
	}
}

func TestPullNowAdminReplacesIdentityListVerbatim(t *testing.T) {
	service, remoteStore, _, identity := newSyncFixture(models.SeededAdmin(), true)
	remoteList := append(models.SeededUsers(), models.User{ID: 9, Username: "sara", Secret: "x", Role: models.RoleMember})
	remoteStore.envelope = &remote.Envelope{
		Data:         json.RawMessage(`{"transactions": []}`),
		IdentityList: remoteList,
	}

	if !service.PullNow(context.Background()) {
		t.Fatal("expected pull to succeed")
	}
	if len(identity.replaced) != 1 {
		t.Fatalf("expected one identity list replacement, got %d", len(identity.replaced))
	}
	if len(identity.replaced[0]) != len(remoteList) {
		t.Fatalf("expected remote list adopted verbatim, got %+v", identity.replaced[0])
	}
}

func TestPullNowMemberIgnoresIdentityList(t *testing.T) {
	service, remoteStore, _, identity := newSyncFixture(models.SeededMember(), true)
	remoteStore.envelope = &remote.Envelope{
		Data:         json.RawMessage(`{"transactions": []}`),
		IdentityList: models.SeededUsers(),
	}

	if !service.PullNow(context.Background()) {
		t.Fatal("expected pull to succeed")
	}
	if len(identity.replaced) != 0 {
		t.Fatalf("expected no identity replacement for member pull, got %d", len(identity.replaced))
	}
}

func TestPullNowErrorMarkerLeavesLocalStateUntouched(t *testing.T) {
	service, remoteStore, session, _ := newSyncFixture(models.SeededMember(), true)
	remoteStore.envelope = &remote.Envelope{ErrorMarker: "not found"}

	if service.PullNow(context.Background()) {
		t.Fatal("expected pull to report false on error marker")
	}
	if len(session.merged) != 0 {
		t.Fatalf("expected no merge, got %d", len(session.merged))
	}
}

func TestMarkDirtyCoalescesIntoSinglePush(t *testing.T) {
	service, remoteStore, _, _ := newSyncFixture(models.SeededMember(), true)

	service.MarkDirty()
	time.Sleep(5 * time.Millisecond)
	service.MarkDirty()
	time.Sleep(10 * time.Millisecond)
	service.MarkDirty()

	if count := remoteStore.pushCount(); count != 0 {
		t.Fatalf("expected no push before the quiet period, got %d", count)
	}

	time.Sleep(100 * time.Millisecond)

	if count := remoteStore.pushCount(); count != 1 {
		t.Fatalf("expected exactly one coalesced push, got %d", count)
	}
	if service.Status().Dirty {
		t.Fatal("expected dirty flag cleared after the debounced push")
	}
}

func TestManualPushCancelsPendingTimer(t *testing.T) {
	service, remoteStore, _, _ := newSyncFixture(models.SeededMember(), true)

	service.MarkDirty()
	if !service.PushNow(context.Background()) {
		t.Fatal("expected manual push to succeed")
	}

	time.Sleep(100 * time.Millisecond)

	if count := remoteStore.pushCount(); count != 1 {
		t.Fatalf("expected the pending timer to be dropped, got %d pushes", count)
	}
}

func TestCancelPendingDropsScheduledPush(t *testing.T) {
	service, remoteStore, _, _ := newSyncFixture(models.SeededMember(), true)

	service.MarkDirty()
	service.CancelPending()

	time.Sleep(100 * time.Millisecond)

	if count := remoteStore.pushCount(); count != 0 {
		t.Fatalf("expected no push after cancel, got %d", count)
	}
	if service.Status().Dirty {
		t.Fatal("expected dirty flag cleared by cancel")
	}
}
