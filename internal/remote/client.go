package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mistermandob/mandob/internal/models"
)

// Envelope is a decoded GET response. The remote store is a dumb blob
// service, so the body may be an error marker, a bare snapshot, or a
// snapshot wrapped in a data envelope with an optional identity list
// (legacy blobs spell it globalUsers).
type Envelope struct {
	ErrorMarker  string
	Data         json.RawMessage
	IdentityList []models.User
}

type PushMeta struct {
	DeviceID string    `json:"deviceId"`
	PushedAt time.Time `json:"pushedAt"`
}

type PushPayload struct {
	Username     string          `json:"username"`
	Data         models.UserData `json:"data"`
	IdentityList []models.User   `json:"identityList,omitempty"`
	Meta         *PushMeta       `json:"meta,omitempty"`
}

// Client talks to the remote snapshot store. Best effort: every call is
// bounded by the transport timeout and callers treat failures as "remote
// unavailable", never as fatal.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

func NewClient(apiURL string) *Client {
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FetchSnapshot GETs the blob stored under username. The t parameter
// busts intermediary caches so a pull always observes the latest write.
func (client *Client) FetchSnapshot(ctx context.Context, username string) (*Envelope, error) {
	requestURL := fmt.Sprintf("%s?username=%s&t=%d", client.apiURL, url.QueryEscape(username), time.Now().UnixMilli())

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot for %s: %w", username, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot response for %s: %w", username, err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch snapshot for %s: status %d", username, response.StatusCode)
	}

	return decodeEnvelope(body)
}

// PushSnapshot POSTs the full payload as text/plain; the remote store
// offers no acknowledgment beyond HTTP success.
func (client *Client) PushSnapshot(ctx context.Context, payload PushPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	request.Header.Set("Content-Type", "text/plain;charset=utf-8")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("push snapshot for %s: %w", payload.Username, err)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push snapshot for %s: status %d", payload.Username, response.StatusCode)
	}
	return nil
}

func decodeEnvelope(body []byte) (*Envelope, error) {
	var probe struct {
		Error        string          `json:"error"`
		Data         json.RawMessage `json:"data"`
		IdentityList []models.User   `json:"identityList"`
		GlobalUsers  []models.User   `json:"globalUsers"`
		Transactions json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode snapshot response: %w", err)
	}

	envelope := &Envelope{ErrorMarker: probe.Error}

	identityList := probe.IdentityList
	if len(identityList) == 0 {
		identityList = probe.GlobalUsers
	}
	envelope.IdentityList = identityList

	switch {
	case len(probe.Data) > 0 && string(probe.Data) != "null":
		envelope.Data = probe.Data
	case len(probe.Transactions) > 0:
		// Bare snapshot without a data wrapper.
		envelope.Data = json.RawMessage(body)
	}

	return envelope, nil
}
