package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage keys. One global identity-list key, one remembered-session key,
// one per-username data key and one per-install device id.
const (
	identityListKey = "mandob_users_v2"
	sessionKey      = "mandob_session_v2"
	dataKeyPrefix   = "mandob_data_"
	deviceIDKey     = "mandob_device_id"
)

type LocalEntry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (LocalEntry) TableName() string {
	return "local_entries"
}

// LocalStore is the durable key-value adapter every local read and write
// goes through. Reads and writes are synchronous and never touch the
// network.
type LocalStore struct {
	database *gorm.DB
}

func NewLocalStore(database *gorm.DB) *LocalStore {
	return &LocalStore{database: database}
}

func (store *LocalStore) Get(key string) ([]byte, bool, error) {
	var entry LocalEntry
	err := store.database.Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

func (store *LocalStore) Put(key string, value []byte) error {
	entry := LocalEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	return store.database.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&entry).Error
}

func (store *LocalStore) Remove(key string) error {
	return store.database.Where("key = ?", key).Delete(&LocalEntry{}).Error
}
