package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"boothfair/internal/models"
)

// VendorClient reads vendor submissions and event listings from the
// organizer's REST backend
type VendorClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type VendorAPIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// listEnvelope is the paginated shape some backend versions return
type listEnvelope struct {
	Data []json.RawMessage `json:"data"`
}

func NewVendorClient(cfg VendorAPIConfig) *VendorClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &VendorClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ListVendors fetches every vendor record. Both a bare JSON array and a
// {"data": [...]} envelope are accepted. Records that cannot be decoded are
// skipped so one bad entry does not hide the rest of the listing.
func (vc *VendorClient) ListVendors(ctx context.Context) ([]models.VendorRecord, error) {
	body, err := vc.get(ctx, "/api/vendors")
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}

	items, err := decodeList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode vendors response: %w", err)
	}

	vendors := make([]models.VendorRecord, 0, len(items))
	for i, item := range items {
		var v models.VendorRecord
		if err := json.Unmarshal(item, &v); err != nil {
			slog.Warn("Skipping malformed vendor record", "index", i, "error", err)
			continue
		}
		vendors = append(vendors, v)
	}
	return vendors, nil
}

// ListEvents fetches the published event listings, skipping malformed entries
func (vc *VendorClient) ListEvents(ctx context.Context) ([]models.Event, error) {
	body, err := vc.get(ctx, "/api/events")
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	items, err := decodeList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}

	events := make([]models.Event, 0, len(items))
	for i, item := range items {
		var e models.Event
		if err := json.Unmarshal(item, &e); err != nil {
			slog.Warn("Skipping malformed event", "index", i, "error", err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// decodeList splits a listing body into its raw elements. The body shape is
// chosen from its first byte so the reported error matches that shape.
func decodeList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope listEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		return envelope.Data, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (vc *VendorClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, vc.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if vc.token != "" {
		req.Header.Set("Authorization", "Bearer "+vc.token)
	}

	resp, err := vc.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
