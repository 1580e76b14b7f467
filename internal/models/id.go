package models

import (
	"sync"
	"time"
)

var (
	recordIDMu   sync.Mutex
	lastRecordID int64
)

// NextRecordID returns a strictly increasing, creation-time-ordered id.
// Ids are millisecond timestamps; two records created in the same
// millisecond get consecutive values.
func NextRecordID() int64 {
	recordIDMu.Lock()
	defer recordIDMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= lastRecordID {
		id = lastRecordID + 1
	}
	lastRecordID = id
	return id
}
