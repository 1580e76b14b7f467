package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mistermandob/mandob/internal/models"
)

// ErrDecodeFailure marks a malformed or undecodable transfer payload. It is
// distinct from credential errors so callers can show a "corrupt file"
// message instead of a login one.
var ErrDecodeFailure = errors.New("invalid transfer payload")

type SnapshotSession interface {
	CurrentUser() (models.User, bool)
	Snapshot() (models.UserData, bool)
	ReplaceSnapshot(data models.UserData) error
}

type transferMeta struct {
	Type     string    `json:"type"`
	Date     time.Time `json:"date"`
	DeviceID string    `json:"deviceId,omitempty"`
}

type transferEnvelope struct {
	Meta         transferMeta    `json:"meta"`
	IdentityList []models.User   `json:"identityList"`
	Data         models.UserData `json:"data"`
}

// TransferService serializes snapshots for file export and manual
// device-to-device transfer. Admin exports wrap the snapshot with the
// identity list; member exports are a bare UserData object.
type TransferService struct {
	session    SnapshotSession
	identities IdentityListStore
	deviceID   string
}

func NewTransferService(session SnapshotSession, identities IdentityListStore, deviceID string) *TransferService {
	return &TransferService{session: session, identities: identities, deviceID: deviceID}
}

// Export encodes the active snapshot as UTF-8 JSON. With wrapBase64 the
// payload is additionally base64-encoded for clipboard-safe transport.
func (service *TransferService) Export(wrapBase64 bool) (string, error) {
	user, ok := service.session.CurrentUser()
	if !ok {
		return "", ErrNoActiveSession
	}
	data, ok := service.session.Snapshot()
	if !ok {
		return "", ErrNoActiveSession
	}

	var payload any = data
	if user.IsAdmin() {
		identityList, err := service.identities.List()
		if err != nil {
			return "", fmt.Errorf("load identity list for export: %w", err)
		}
		payload = transferEnvelope{
			Meta:         transferMeta{Type: "full_backup", Date: time.Now().UTC(), DeviceID: service.deviceID},
			IdentityList: identityList,
			Data:         data,
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode export payload: %w", err)
	}
	if wrapBase64 {
		return base64.StdEncoding.EncodeToString(encoded), nil
	}
	return string(encoded), nil
}

// Import decodes a transfer payload (direct JSON first, base64-wrapped JSON
// second) and wholesale-replaces the active snapshot. A bundled identity
// list is applied only when the importing identity is an admin.
func (service *TransferService) Import(payload string) error {
	raw, err := decodeTransferText(payload)
	if err != nil {
		return err
	}

	var probe struct {
		Data         json.RawMessage `json:"data"`
		IdentityList []models.User   `json:"identityList"`
		GlobalUsers  []models.User   `json:"globalUsers"`
		Transactions json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ErrDecodeFailure
	}

	user, ok := service.session.CurrentUser()
	if !ok {
		return ErrNoActiveSession
	}

	identityList := probe.IdentityList
	if len(identityList) == 0 {
		identityList = probe.GlobalUsers
	}
	if len(identityList) > 0 && user.IsAdmin() {
		if err := service.identities.Replace(identityList); err != nil {
			log.Printf("applying imported identity list failed: %v", err)
		}
	}

	snapshotRaw := probe.Data
	if len(snapshotRaw) == 0 || string(snapshotRaw) == "null" {
		if len(probe.Transactions) == 0 {
			return ErrDecodeFailure
		}
		snapshotRaw = raw
	}

	snapshot, err := models.OverlaySnapshot(models.DefaultUserData(), snapshotRaw)
	if err != nil {
		return ErrDecodeFailure
	}
	return service.session.ReplaceSnapshot(snapshot)
}

func decodeTransferText(payload string) ([]byte, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, ErrDecodeFailure
	}
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, ErrDecodeFailure
	}
	if !json.Valid(decoded) {
		return nil, ErrDecodeFailure
	}
	return decoded, nil
}
