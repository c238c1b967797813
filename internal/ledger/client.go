package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Client talks to a ledger gateway service over HTTP. Each Gateway method
// opens a fresh session for the caller's identity, performs exactly one
// operation, and tears the session down again. Nothing is shared between
// calls, so concurrent requests never see each other's credentials.
type Client struct {
	baseURL string
	network string
	admin   string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, network, adminIdentity string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		network: network,
		admin:   adminIdentity,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "ledger_client")),
	}
}

type session struct {
	client *Client
	id     string
}

func (c *Client) connect(ctx context.Context, identity string) (*session, error) {
	body, _ := json.Marshal(map[string]string{
		"network":  c.network,
		"identity": identity,
	})

	resp, err := c.do(ctx, http.MethodPost, "/api/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, unavailable("failed to open session", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, rejected(readError(resp))
	}

	var out struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.SessionID == "" {
		return nil, rejected("gateway returned no session id")
	}
	return &session{client: c, id: out.SessionID}, nil
}

// close tears the session down. It deliberately ignores the caller's
// cancellation: a session must not leak just because the request died.
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := s.client.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(s.id), nil)
	if err != nil {
		s.client.logger.Warn("Failed to close ledger session", zap.String("session_id", s.id), zap.Error(err))
		return
	}
	resp.Body.Close()
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

func (s *session) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	return s.client.do(ctx, method, "/api/sessions/"+url.PathEscape(s.id)+path, body)
}

func readError(resp *http.Response) string {
	var out struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err == nil && out.Error != "" {
		return out.Error
	}
	return fmt.Sprintf("gateway returned status %d", resp.StatusCode)
}

func (c *Client) OnboardIdentity(ctx context.Context, passport, userID string) error {
	// Participant registration and credential issuance require the
	// administrative identity, not the not-yet-existing user's.
	sess, err := c.connect(ctx, c.admin)
	if err != nil {
		return err
	}
	defer sess.close()

	resp, err := sess.do(ctx, http.MethodPost, "/participants", map[string]string{
		"userId":   userID,
		"passport": passport,
	})
	if err != nil {
		return unavailable("failed to register participant", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return rejected(readError(resp))
	}

	c.logger.Info("Onboarded ledger identity", zap.String("user_id", userID))
	return nil
}

func (c *Client) VerifyIdentity(ctx context.Context, passport, userID string) (bool, error) {
	sess, err := c.connect(ctx, passport)
	if err != nil {
		return false, err
	}
	defer sess.close()

	resp, err := sess.do(ctx, http.MethodGet, "/participants/"+url.PathEscape(userID), nil)
	if err != nil {
		return false, unavailable("failed to look up participant", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, rejected(readError(resp))
	}
}

func (c *Client) SubmitCreate(ctx context.Context, passport, reportID, digest string) (*Anchor, error) {
	return c.submit(ctx, passport, "/transactions/report-creation", map[string]string{
		"reportId": reportID,
		"digest":   digest,
	})
}

func (c *Client) SubmitUpdate(ctx context.Context, passport, reportID, digest string) (*Anchor, error) {
	return c.submit(ctx, passport, "/transactions/report-update", map[string]string{
		"reportId": reportID,
		"digest":   digest,
	})
}

func (c *Client) submit(ctx context.Context, passport, path string, payload map[string]string) (*Anchor, error) {
	sess, err := c.connect(ctx, passport)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	resp, err := sess.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, unavailable("failed to submit transaction", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, rejected(readError(resp))
	}

	var out struct {
		TransactionID string `json:"transactionId"`
		Digest        string `json:"digest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, rejected("failed to decode transaction response")
	}
	if out.TransactionID == "" {
		return nil, rejected("gateway returned no transaction id")
	}
	return &Anchor{TransactionID: out.TransactionID, ConfirmedDigest: out.Digest}, nil
}

func (c *Client) ResolveCreationContent(ctx context.Context, passport, reportID string) (string, error) {
	return c.resolve(ctx, passport, "/transactions/report-creation?reportId="+url.QueryEscape(reportID))
}

func (c *Client) ResolveUpdateContent(ctx context.Context, passport, transactionID string) (string, error) {
	return c.resolve(ctx, passport, "/transactions/report-update/"+url.PathEscape(transactionID))
}

func (c *Client) resolve(ctx context.Context, passport, path string) (string, error) {
	sess, err := c.connect(ctx, passport)
	if err != nil {
		return "", err
	}
	defer sess.close()

	resp, err := sess.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", unavailable("failed to query transaction", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", rejected(readError(resp))
	}

	var out struct {
		Digest string `json:"digest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Digest == "" {
		return "", rejected("gateway returned no digest")
	}
	return out.Digest, nil
}
