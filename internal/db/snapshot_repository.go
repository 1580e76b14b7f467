package db

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/mistermandob/mandob/internal/models"
)

// SnapshotRepository persists one UserData snapshot per username.
type SnapshotRepository struct {
	store *LocalStore
}

func NewSnapshotRepository(store *LocalStore) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

// Load returns the stored snapshot overlaid on defaults, so older persisted
// shapes pick up fields they predate. The second return reports whether a
// stored snapshot existed; a fresh identity gets defaults with its username
// as display name. A corrupt stored payload falls back to defaults rather
// than failing login.
func (repo *SnapshotRepository) Load(username string) (models.UserData, bool, error) {
	raw, found, err := repo.store.Get(dataKeyPrefix + username)
	if err != nil {
		return models.UserData{}, false, fmt.Errorf("load snapshot for %s: %w", username, err)
	}
	if !found {
		data := models.DefaultUserData()
		data.Settings.DisplayName = username
		return data, false, nil
	}

	data, err := models.OverlaySnapshot(models.DefaultUserData(), raw)
	if err != nil {
		log.Printf("stored snapshot for %s is unreadable, falling back to defaults: %v", username, err)
		return models.DefaultUserData(), false, nil
	}
	return data, true, nil
}

func (repo *SnapshotRepository) Save(username string, data models.UserData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", username, err)
	}
	if err := repo.store.Put(dataKeyPrefix+username, raw); err != nil {
		return fmt.Errorf("save snapshot for %s: %w", username, err)
	}
	return nil
}

func (repo *SnapshotRepository) Remove(username string) error {
	return repo.store.Remove(dataKeyPrefix + username)
}
