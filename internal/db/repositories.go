package db

import "gorm.io/gorm"

type Repositories struct {
	Store      *LocalStore
	Identities *IdentityRepository
	Snapshots  *SnapshotRepository
	Sessions   *SessionRepository
	Devices    *DeviceRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	store := NewLocalStore(database)
	return &Repositories{
		Store:      store,
		Identities: NewIdentityRepository(store),
		Snapshots:  NewSnapshotRepository(store),
		Sessions:   NewSessionRepository(store),
		Devices:    NewDeviceRepository(store),
	}
}
