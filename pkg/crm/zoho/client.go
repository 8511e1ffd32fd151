// Package zoho files leads and their attachments in Zoho CRM.
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultAccountsURL = "https://accounts.zoho.com"
	DefaultAPIBase     = "https://www.zohoapis.com/crm/v2"
)

var ErrNoRecord = errors.New("zoho: no record returned")

type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccountsURL  string
	APIBase      string
	Timeout      time.Duration
}

func (c Config) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Lead is the subset of the Leads module a claim fills in.
type Lead struct {
	ID                 string `json:"id,omitempty"`
	FirstName          string `json:"First_Name,omitempty"`
	LastName           string `json:"Last_Name"`
	Email              string `json:"Email,omitempty"`
	Company            string `json:"Company"`
	LeadSource         string `json:"Lead_Source,omitempty"`
	LeadStatus         string `json:"Lead_Status,omitempty"`
	Description        string `json:"Description,omitempty"`
	FlightNumber       string `json:"Flight_Number,omitempty"`
	FlightDate         string `json:"Flight_Date,omitempty"`
	DepartureAirport   string `json:"Departure_Airport,omitempty"`
	ArrivalAirport     string `json:"Arrival_Airport,omitempty"`
	DelayHours         string `json:"Delay_Hours,omitempty"`
	CompensationAmount string `json:"Compensation_Amount,omitempty"`
	AirlineResponse    string `json:"Airline_Response,omitempty"`
	BookingReference   string `json:"Booking_Reference,omitempty"`
}

// APIError is a rejected CRM call.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zoho %s: status %d: %s", e.Op, e.Status, e.Body)
}

type Client struct {
	http    *http.Client
	apiBase string
}

// New builds a client whose transport refreshes the access token on demand.
func New(ctx context.Context, cfg Config) *Client {
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = DefaultAccountsURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.AccountsURL + "/oauth/v2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	base := &http.Client{Timeout: cfg.Timeout}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
	ts := oc.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &zohoTransport{src: ts, base: http.DefaultTransport},
		},
		apiBase: cfg.APIBase,
	}
}

// zohoTransport is oauth2.Transport with Zoho's authorization scheme.
type zohoTransport struct {
	src  oauth2.TokenSource
	base http.RoundTripper
}

func (t *zohoTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.src.Token()
	if err != nil {
		return nil, fmt.Errorf("zoho token: %w", err)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Zoho-oauthtoken "+tok.AccessToken)
	return t.base.RoundTrip(r)
}

type recordsEnvelope struct {
	Data []struct {
		ID      string `json:"id"`
		Code    string `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
	} `json:"data"`
}

func (c *Client) CreateLead(ctx context.Context, lead Lead) (string, error) {
	env, err := c.writeLead(ctx, http.MethodPost, "create lead", lead)
	if err != nil {
		return "", err
	}
	return env.Data[0].Details.ID, nil
}

func (c *Client) UpdateLead(ctx context.Context, id string, lead Lead) error {
	lead.ID = id
	_, err := c.writeLead(ctx, http.MethodPut, "update lead", lead)
	return err
}

func (c *Client) writeLead(ctx context.Context, method, op string, lead Lead) (*recordsEnvelope, error) {
	payload, err := json.Marshal(map[string][]Lead{"data": {lead}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+"/Leads", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var env recordsEnvelope
	if err := c.do(req, op, &env, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, ErrNoRecord
	}
	if env.Data[0].Status == "error" {
		return nil, &APIError{Op: op, Status: http.StatusBadRequest, Body: env.Data[0].Code + ": " + env.Data[0].Message}
	}
	return &env, nil
}

// FindLead searches by email and flight number. ok is false when nothing
// matches.
func (c *Client) FindLead(ctx context.Context, email, flightNumber string) (string, bool, error) {
	criteria := fmt.Sprintf("(Email:equals:%s)and(Flight_Number:equals:%s)", email, flightNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/Leads/search?criteria="+url.QueryEscape(criteria), nil)
	if err != nil {
		return "", false, err
	}
	var env recordsEnvelope
	if err := c.do(req, "search lead", &env, http.StatusOK, http.StatusNoContent); err != nil {
		return "", false, err
	}
	if len(env.Data) == 0 {
		return "", false, nil
	}
	return env.Data[0].ID, true, nil
}

func (c *Client) UploadAttachment(ctx context.Context, leadID, filename string, content io.Reader) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/Leads/"+url.PathEscape(leadID)+"/Attachments", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, "upload attachment", nil, http.StatusOK, http.StatusCreated)
}

func (c *Client) do(req *http.Request, op string, out any, okStatus ...int) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zoho %s: %w", op, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	accepted := false
	for _, s := range okStatus {
		if resp.StatusCode == s {
			accepted = true
			break
		}
	}
	if !accepted {
		return &APIError{Op: op, Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("zoho %s: decode: %w", op, err)
	}
	return nil
}
