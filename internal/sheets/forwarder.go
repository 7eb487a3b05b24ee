package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookhook/internal/models"
)

// Forwarder posts records as JSON to a spreadsheet web app (Apps Script deployment).
type Forwarder struct {
	url        string
	secret     string
	httpClient *http.Client
}

// NewForwarder constructs a forwarder. An empty url is accepted; Forward then
// fails with a configuration error. timeout <= 0 leaves the client unbounded.
func NewForwarder(url, secret string, timeout time.Duration) *Forwarder {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return NewForwarderWithClient(url, secret, client)
}

func NewForwarderWithClient(url, secret string, client *http.Client) *Forwarder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Forwarder{
		url:        strings.TrimSpace(url),
		secret:     secret,
		httpClient: client,
	}
}

// Forward sends exactly one POST. The response body is returned as-is.
func (f *Forwarder) Forward(ctx context.Context, record models.Record) (json.RawMessage, error) {
	if f.url == "" {
		return nil, &ConfigurationError{Setting: "APPS_SCRIPT_URL"}
	}

	body, err := f.payload(record)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", record.RecordKind(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, models.MaxResponseBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}
	if readErr != nil {
		return nil, &TransportError{Err: readErr}
	}

	return json.RawMessage(data), nil
}

// payload is the record's JSON with a token field added when a secret is configured.
func (f *Forwarder) payload(record models.Record) ([]byte, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	if f.secret == "" {
		return raw, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	token, err := json.Marshal(f.secret)
	if err != nil {
		return nil, err
	}
	fields["token"] = token
	return json.Marshal(fields)
}
