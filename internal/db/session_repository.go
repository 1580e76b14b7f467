package db

// SessionRepository remembers the last active username so an app restart
// resumes the same identity without a fresh login.
type SessionRepository struct {
	store *LocalStore
}

func NewSessionRepository(store *LocalStore) *SessionRepository {
	return &SessionRepository{store: store}
}

func (repo *SessionRepository) Load() (string, bool, error) {
	raw, found, err := repo.store.Get(sessionKey)
	if err != nil || !found {
		return "", false, err
	}
	return string(raw), true, nil
}

func (repo *SessionRepository) Save(username string) error {
	return repo.store.Put(sessionKey, []byte(username))
}

func (repo *SessionRepository) Clear() error {
	return repo.store.Remove(sessionKey)
}
