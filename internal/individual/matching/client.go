// Package matching submits normalized candidates to the external
// match-scoring service and interprets the returned score against the
// acceptance threshold.
package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/brighthive/master-client-index/internal/individual/models"
	"github.com/brighthive/master-client-index/internal/platform/metrics"
	dErrors "github.com/brighthive/master-client-index/pkg/domain-errors"
)

// unavailableMessage is surfaced verbatim when the matching service cannot
// be reached or answers with a failure.
const unavailableMessage = "The matching service did not return a response."

// Evaluator scores a normalized candidate against the known population.
type Evaluator interface {
	Evaluate(ctx context.Context, rec models.NormalizedRecord) (models.MatchCandidate, error)
}

// Client calls the matching service over HTTP. One POST per resolution,
// bounded by the configured timeout; a timeout is indistinguishable from a
// down service and both reject the submission without writing.
type Client struct {
	httpClient *http.Client
	uri        string
	threshold  float64
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records matching round-trip latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New constructs a Client for the given compute-match endpoint.
func New(uri string, threshold float64, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		uri:        uri,
		threshold:  threshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// candidate is the wire shape sent to the scorer: the flat PII fields only.
// Reference-relationship internals are omitted because the scorer cannot
// consume them generically.
type candidate struct {
	VendorID     *string `json:"vendor_id,omitempty"`
	SSN          *string `json:"ssn,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	MiddleName   *string `json:"middle_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Suffix       *string `json:"suffix,omitempty"`
	EmailAddress *string `json:"email_address,omitempty"`
	Telephone    *string `json:"telephone,omitempty"`
	DateOfBirth  *string `json:"date_of_birth,omitempty"`
}

// matchResponse tolerates the reference scorer's loose typing: score is a
// number on a hit and an empty string when no candidate scored.
type matchResponse struct {
	MciID string          `json:"mci_id"`
	Score json.RawMessage `json:"score"`
}

// Evaluate submits rec and applies the acceptance rule: a present score at
// or above the threshold is a match against the returned identifier,
// anything else means the caller should create a new identity.
func (c *Client) Evaluate(ctx context.Context, rec models.NormalizedRecord) (models.MatchCandidate, error) {
	payload := candidate{
		VendorID:     rec.VendorID,
		SSN:          rec.SSN,
		FirstName:    rec.FirstName,
		MiddleName:   rec.MiddleName,
		LastName:     rec.LastName,
		Suffix:       rec.Suffix,
		EmailAddress: rec.EmailAddress,
		Telephone:    rec.Telephone,
	}
	if rec.DateOfBirth != nil {
		dob := rec.DateOfBirth.Format("2006-01-02")
		payload.DateOfBirth = &dob
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return models.MatchCandidate{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to serialize match candidate")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri, bytes.NewReader(body))
	if err != nil {
		return models.MatchCandidate{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build match request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveMatchingLatency(time.Since(start))
	if err != nil {
		return models.MatchCandidate{}, dErrors.Wrap(err, dErrors.CodeMatchingUnavailable, unavailableMessage)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return models.MatchCandidate{}, dErrors.New(dErrors.CodeMatchingUnavailable, unavailableMessage)
	}

	var mr matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return models.MatchCandidate{}, dErrors.Wrap(err, dErrors.CodeMatchingUnavailable, unavailableMessage)
	}

	score, present := parseScore(mr.Score)
	if present && score >= c.threshold && mr.MciID != "" {
		return models.MatchCandidate{Matched: true, MciID: mr.MciID, Score: score}, nil
	}
	return models.MatchCandidate{Matched: false, Score: score}, nil
}

// parseScore accepts a JSON number, a numeric string, or the reference
// scorer's empty-string no-match marker.
func parseScore(raw json.RawMessage) (float64, bool) {
	s := string(bytes.TrimSpace(raw))
	if s == "" || s == "null" || s == `""` {
		return 0, false
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	score, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return score, true
}
