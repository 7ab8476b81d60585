package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Alert is one point-in-time event returned by the alerts endpoint.
type Alert struct {
	ID        string    `json:"id"`
	AlertDate time.Time `json:"alertDate"`
}

// alertPayload is the wire shape of a single alert. The backend sends IDs as
// numbers or strings depending on version, so the ID field is decoded raw.
type alertPayload struct {
	ID        json.RawMessage `json:"id"`
	AlertDate string          `json:"alert_date"`
}

// AlertsClient handles interactions with the alerts backend
type AlertsClient struct {
	baseURL                string
	alertsEndpoint         string
	secondaryVideoEndpoint string
	storeID                string
	httpClient             *http.Client
}

// NewAlertsClient creates a client for the alerts backend. Endpoints are
// joined onto baseURL, which must not include a trailing slash.
func NewAlertsClient(baseURL, alertsEndpoint, secondaryVideoEndpoint, storeID string) *AlertsClient {
	return &AlertsClient{
		baseURL:                strings.TrimSuffix(baseURL, "/"),
		alertsEndpoint:         alertsEndpoint,
		secondaryVideoEndpoint: secondaryVideoEndpoint,
		storeID:                storeID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetAlerts fetches the unprocessed alerts for a date (YYYY-MM-DD). Alerts
// with a missing ID or unparseable timestamp are rejected so downstream
// processing never sees a half-formed alert.
func (c *AlertsClient) GetAlerts(date string) ([]Alert, error) {
	// Validate date format (YYYY-MM-DD)
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date format, should be YYYY-MM-DD: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s", c.baseURL, c.alertsEndpoint)
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	q.Add("store_id", c.storeID)
	q.Add("date", date)
	q.Add("unprocessed", "true")
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned error %d: %s", resp.StatusCode, string(body))
	}

	var payloads []alertPayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	alerts := make([]Alert, 0, len(payloads))
	for i, p := range payloads {
		alert, err := p.toAlert()
		if err != nil {
			return nil, fmt.Errorf("invalid alert at index %d: %w", i, err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil
}

func (p alertPayload) toAlert() (Alert, error) {
	id := strings.Trim(string(p.ID), `"`)
	if id == "" || id == "null" {
		return Alert{}, fmt.Errorf("missing alert id")
	}

	if p.AlertDate == "" {
		return Alert{}, fmt.Errorf("missing alert_date for alert %s", id)
	}
	alertDate, err := parseAlertDate(p.AlertDate)
	if err != nil {
		return Alert{}, fmt.Errorf("bad alert_date %q for alert %s: %v", p.AlertDate, id, err)
	}

	return Alert{ID: id, AlertDate: alertDate}, nil
}

// parseAlertDate accepts the timestamp formats the backend has used over time.
func parseAlertDate(value string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// UpdateSecondaryVideo reports the clip and thumbnail URLs for an alert back
// to the backend. An empty imageURL is allowed when the thumbnail could not
// be produced.
func (c *AlertsClient) UpdateSecondaryVideo(alertID, videoURL, imageURL string) error {
	if alertID == "" {
		return fmt.Errorf("missing alert id")
	}
	if videoURL == "" {
		return fmt.Errorf("missing video URL for alert %s", alertID)
	}

	payload := map[string]string{
		"alert_id":  alertID,
		"video_url": videoURL,
	}
	if imageURL != "" {
		payload["image_url"] = imageURL
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	// The endpoint may carry an {alert_id} path placeholder
	path := strings.ReplaceAll(c.secondaryVideoEndpoint, "{alert_id}", url.PathEscape(alertID))
	endpoint := fmt.Sprintf("%s%s", c.baseURL, path)
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("API returned error %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
