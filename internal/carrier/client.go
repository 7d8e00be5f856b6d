package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrCarrierRequest is the single error kind the orchestration layer sees for
// any failed carrier call. The original cause is wrapped for the logs.
var ErrCarrierRequest = errors.New("carrier api request failed")

// Client talks to the carrier's shipment API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a carrier client. The HTTP timeout bounds every call;
// there is no retry layer at this level.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateShipment opens a shipment with the carrier.
func (c *Client) CreateShipment(ctx context.Context, req CreateShipmentRequest) (*CreateShipmentResponse, error) {
	var resp CreateShipmentResponse
	if err := c.post(ctx, "/shipments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmShipment confirms a previously created shipment.
func (c *Client) ConfirmShipment(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	var resp ConfirmResponse
	if err := c.post(ctx, "/shipments/confirm", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReprintShipmentLabel fetches (or with ForceLabel regenerates) the label
// document for a shipment.
func (c *Client) ReprintShipmentLabel(ctx context.Context, req ReprintRequest) (*LabelResponse, error) {
	var resp LabelResponse
	if err := c.post(ctx, "/shipments/label", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRoutingQuote asks the carrier how the parcel would be routed.
func (c *Client) GetRoutingQuote(ctx context.Context, req RoutingQuoteRequest) (*RoutingQuote, error) {
	var quote RoutingQuote
	if err := c.post(ctx, "/routing/quote", req, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// TrackingByParcelID returns the carrier's raw tracking document for a
// parcel. The payload is kept opaque and merged into the portal metadata by
// the caller.
func (c *Client) TrackingByParcelID(ctx context.Context, parcelID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tracking/"+parcelID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCarrierRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCarrierRequest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tracking lookup status %s", ErrCarrierRequest, resp.Status)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding tracking response: %v", ErrCarrierRequest, err)
	}
	return raw, nil
}

// post sends a JSON payload and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshaling request: %v", ErrCarrierRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCarrierRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCarrierRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: %s returned status %s", ErrCarrierRequest, path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrCarrierRequest, path, err)
	}
	return nil
}
