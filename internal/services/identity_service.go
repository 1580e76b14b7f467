package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/mistermandob/mandob/internal/models"
	"github.com/mistermandob/mandob/internal/remote"
)

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrSeededUser       = errors.New("seeded users cannot be deleted")
	ErrUserNotFound     = errors.New("user not found")
)

type IdentityRepository interface {
	List() ([]models.User, error)
	Replace(users []models.User) error
	MergeRemote(remoteUsers []models.User) ([]models.User, error)
}

// RemoteDirectory fetches the remote record that carries the shared
// identity list. The remote store is keyed by username and the list is
// only duplicated under the seed admin's record.
type RemoteDirectory interface {
	FetchSnapshot(ctx context.Context, username string) (*remote.Envelope, error)
}

type SnapshotRemover interface {
	Remove(username string) error
}

// IdentityService resolves credentials against the local identity list
// first and the remote one second, and owns admin edits to the list.
type IdentityService struct {
	identities IdentityRepository
	directory  RemoteDirectory
	snapshots  SnapshotRemover
}

func NewIdentityService(identities IdentityRepository, directory RemoteDirectory, snapshots SnapshotRemover) *IdentityService {
	return &IdentityService{identities: identities, directory: directory, snapshots: snapshots}
}

// Resolve maps a (username, secret) pair to a User. The local list is
// checked first and a local hit never touches the network. On a local miss
// the remote identity list is fetched; a remote hit is adopted into the
// local list (remote wins per username) before returning. Network failure
// is swallowed and reads as ErrIdentityNotFound.
func (service *IdentityService) Resolve(ctx context.Context, username string, secret string) (models.User, error) {
	users, err := service.identities.List()
	if err != nil {
		log.Printf("local identity list unavailable, falling back to seeded users: %v", err)
		users = models.SeededUsers()
	}
	for _, user := range users {
		if user.MatchesCredentials(username, secret) {
			return user, nil
		}
	}

	envelope, err := service.directory.FetchSnapshot(ctx, models.SeededAdminUsername)
	if err != nil {
		log.Printf("remote identity lookup failed: %v", err)
		return models.User{}, ErrIdentityNotFound
	}
	if envelope.ErrorMarker != "" || len(envelope.IdentityList) == 0 {
		return models.User{}, ErrIdentityNotFound
	}

	for _, user := range envelope.IdentityList {
		if user.MatchesCredentials(username, secret) {
			if _, mergeErr := service.identities.MergeRemote(envelope.IdentityList); mergeErr != nil {
				log.Printf("adopting remote identity list failed: %v", mergeErr)
			}
			return user, nil
		}
	}

	return models.User{}, ErrIdentityNotFound
}

func (service *IdentityService) ListUsers() ([]models.User, error) {
	return service.identities.List()
}

// AddUser creates a new identity. Usernames are unique case-insensitively.
func (service *IdentityService) AddUser(username string, secret string, displayName string, role string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(secret) == "" {
		return models.User{}, errors.New("username and secret are required")
	}
	if role != models.RoleAdmin {
		role = models.RoleMember
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = username
	}

	users, err := service.identities.List()
	if err != nil {
		return models.User{}, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Username, username) {
			return models.User{}, ErrUsernameTaken
		}
	}

	created := models.User{
		ID:          models.NextRecordID(),
		Username:    username,
		Secret:      secret,
		DisplayName: displayName,
		Role:        role,
	}
	if err := service.identities.Replace(append(users, created)); err != nil {
		return models.User{}, err
	}
	return created, nil
}

// DeleteUser removes an identity and its local snapshot. Seeded users are
// refused.
func (service *IdentityService) DeleteUser(id int64) error {
	users, err := service.identities.List()
	if err != nil {
		return err
	}

	remaining := make([]models.User, 0, len(users))
	var deleted *models.User
	for _, user := range users {
		if user.ID == id {
			matched := user
			deleted = &matched
			continue
		}
		remaining = append(remaining, user)
	}
	if deleted == nil {
		return ErrUserNotFound
	}
	if deleted.IsSeeded() {
		return ErrSeededUser
	}

	if err := service.snapshots.Remove(deleted.Username); err != nil {
		log.Printf("removing snapshot for deleted user %s failed: %v", deleted.Username, err)
	}
	return service.identities.Replace(remaining)
}
