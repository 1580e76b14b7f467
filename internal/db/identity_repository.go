package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mistermandob/mandob/internal/models"
)

// IdentityRepository owns the shared identity list. Both the login fallback
// and admin edits go through it; nothing else reads or writes the list.
type IdentityRepository struct {
	store *LocalStore
}

func NewIdentityRepository(store *LocalStore) *IdentityRepository {
	return &IdentityRepository{store: store}
}

// List loads the identity list, seeding the two built-in users when the key
// is absent and re-inserting a seeded user an older persisted list lost.
func (repo *IdentityRepository) List() ([]models.User, error) {
	raw, found, err := repo.store.Get(identityListKey)
	if err != nil {
		return nil, fmt.Errorf("load identity list: %w", err)
	}
	if !found {
		return models.SeededUsers(), nil
	}

	users := make([]models.User, 0)
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode identity list: %w", err)
	}
	if len(users) == 0 {
		return models.SeededUsers(), nil
	}
	return ensureSeededUsers(users), nil
}

// Replace persists the given list wholesale, seeded users backfilled.
func (repo *IdentityRepository) Replace(users []models.User) error {
	raw, err := json.Marshal(ensureSeededUsers(users))
	if err != nil {
		return fmt.Errorf("encode identity list: %w", err)
	}
	if err := repo.store.Put(identityListKey, raw); err != nil {
		return fmt.Errorf("save identity list: %w", err)
	}
	return nil
}

// MergeRemote folds a remote identity list into the local one, deduplicating
// by username with remote entries winning on conflict, persists the merged
// list and returns it.
func (repo *IdentityRepository) MergeRemote(remoteUsers []models.User) ([]models.User, error) {
	local, err := repo.List()
	if err != nil {
		local = models.SeededUsers()
	}

	merged := make([]models.User, 0, len(local)+len(remoteUsers))
	position := make(map[string]int, len(local))
	for _, user := range local {
		position[strings.ToLower(user.Username)] = len(merged)
		merged = append(merged, user)
	}
	for _, user := range remoteUsers {
		key := strings.ToLower(user.Username)
		if index, exists := position[key]; exists {
			merged[index] = user
			continue
		}
		position[key] = len(merged)
		merged = append(merged, user)
	}

	if err := repo.Replace(merged); err != nil {
		return nil, err
	}
	return ensureSeededUsers(merged), nil
}

func ensureSeededUsers(users []models.User) []models.User {
	result := append([]models.User(nil), users...)
	for _, seeded := range models.SeededUsers() {
		present := false
		for _, user := range result {
			if strings.EqualFold(user.Username, seeded.Username) {
				present = true
				break
			}
		}
		if !present {
			result = append(result, seeded)
		}
	}
	return result
}
