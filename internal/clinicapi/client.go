package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitalcare/clinic-portal/internal/scheduling"
	"github.com/vitalcare/clinic-portal/pkg/logging"
)

// RequestObserver records the outcome and latency of clinic API round trips.
type RequestObserver interface {
	ObserveClinicRequest(operation, outcome string, seconds float64)
}

// Client is a typed HTTP client for the remote clinic REST API. It is the
// only component that speaks the backend's wire shapes; everything it hands
// back is already parsed into scheduling entities.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	observer   RequestObserver
}

// Option configures a Client.
type Option func(*Client)

// WithObserver attaches request metrics to the client.
func WithObserver(obs RequestObserver) Option {
	return func(c *Client) { c.observer = obs }
}

// WithTimeout overrides the transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a clinic API client against the one configured base URL.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates against POST /api/users/login and returns the user on
// success. A wrong password surfaces as *APIError; network trouble as a
// wrapped transport error.
func (c *Client) Login(ctx context.Context, email, password string) (*scheduling.User, error) {
	var wire userWire
	if err := c.do(ctx, "Login", http.MethodPost, "/api/users/login", nil, LoginRequest{Email: email, Password: password}, &wire); err != nil {
		return nil, err
	}
	user, err := wire.toDomain()
	if err != nil {
		return nil, fmt.Errorf("clinicapi: login response: %w", err)
	}
	return user, nil
}

// ListDoctors returns the clinic's doctors, available or not.
func (c *Client) ListDoctors(ctx context.Context) ([]scheduling.Doctor, error) {
	var wires []doctorWire
	if err := c.do(ctx, "ListDoctors", http.MethodGet, "/api/doctors", nil, nil, &wires); err != nil {
		return nil, err
	}
	doctors := make([]scheduling.Doctor, 0, len(wires))
	for _, w := range wires {
		doctors = append(doctors, w.toDomain())
	}
	return doctors, nil
}

// ListAppointments returns all appointments, optionally filtered server-side
// by doctor id. Records that fail to parse are dropped and logged rather
// than propagated inward.
func (c *Client) ListAppointments(ctx context.Context, doctorID string) ([]scheduling.Appointment, error) {
	var query url.Values
	if strings.TrimSpace(doctorID) != "" {
		query = url.Values{"doctor_id": []string{doctorID}}
	}
	var wires []appointmentWire
	if err := c.do(ctx, "ListAppointments", http.MethodGet, "/api/appointments", query, nil, &wires); err != nil {
		return nil, err
	}
	appointments := make([]scheduling.Appointment, 0, len(wires))
	for _, w := range wires {
		appt, err := w.toDomain()
		if err != nil {
			c.logger.Warn("dropping malformed appointment record", "error", err)
			continue
		}
		appointments = append(appointments, appt)
	}
	return appointments, nil
}

// CreateAppointment posts a new appointment record.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) error {
	return c.do(ctx, "CreateAppointment", http.MethodPost, "/api/appointments", nil, req, nil)
}

// UpdateAppointment puts the full merged record for an existing appointment.
func (c *Client) UpdateAppointment(ctx context.Context, id string, req UpdateAppointmentRequest) error {
	return c.do(ctx, "UpdateAppointment", http.MethodPut, "/api/appointments/"+url.PathEscape(id), nil, req, nil)
}

// DeleteAppointment removes an appointment by id.
func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteAppointment", http.MethodDelete, "/api/appointments/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			c.observer.ObserveClinicRequest(operation, outcome, time.Since(start).Seconds())
		}
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return fmt.Errorf("clinicapi: marshal request: %w", merr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("clinicapi: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clinicapi: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("clinicapi: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: extractErrorMessage(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("clinicapi: unmarshal response: %w", err)
		}
	}
	return nil
}

// extractErrorMessage pulls the structured {"error": "..."} message out of a
// failure body, falling back to the raw text.
func extractErrorMessage(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
