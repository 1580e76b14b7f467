package db

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DeviceRepository holds the stable per-install id stamped on pushes and
// exports for multi-device provenance.
type DeviceRepository struct {
	store *LocalStore
}

func NewDeviceRepository(store *LocalStore) *DeviceRepository {
	return &DeviceRepository{store: store}
}

// DeviceID returns the stored device id, generating and persisting one on
// first use.
func (repo *DeviceRepository) DeviceID() (string, error) {
	raw, found, err := repo.store.Get(deviceIDKey)
	if err != nil {
		return "", fmt.Errorf("load device id: %w", err)
	}
	if found {
		if id := strings.TrimSpace(string(raw)); id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := repo.store.Put(deviceIDKey, []byte(id)); err != nil {
		return "", fmt.Errorf("save device id: %w", err)
	}
	return id, nil
}
