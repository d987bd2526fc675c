package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// RelaySender posts messages to an HTTP email relay that takes
// {recipient_email, subject, html_body} and answers {status, message}.
type RelaySender struct {
	url        string
	httpClient *http.Client
}

// NewRelaySender uses client as is; nil means a plain client with a timeout.
func NewRelaySender(url string, client *http.Client) *RelaySender {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RelaySender{url: url, httpClient: client}
}

// NewRelaySenderWithCredentials authenticates every request with an
// OAuth2 client-credentials token fetched from tokenURL.
func NewRelaySenderWithCredentials(ctx context.Context, url, tokenURL, clientID, clientSecret string, scopes []string) *RelaySender {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	client := cc.Client(ctx)
	client.Timeout = 20 * time.Second
	return &RelaySender{url: url, httpClient: client}
}

type relayRequest struct {
	RecipientEmail string `json:"recipient_email"`
	Subject        string `json:"subject"`
	HTMLBody       string `json:"html_body"`
}

type relayResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r *RelaySender) Send(ctx context.Context, recipient, subject, html string) error {
	to, err := validRecipient(recipient)
	if err != nil {
		return err
	}
	b, err := json.Marshal(relayRequest{RecipientEmail: to, Subject: subject, HTMLBody: html})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: relay returned %d: %s", ErrDeliveryFailed, resp.StatusCode, strings.TrimSpace(string(bb)))
	}

	var out relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return fmt.Errorf("%w: invalid relay response: %v", ErrDeliveryFailed, err)
	}
	if strings.EqualFold(out.Status, "error") {
		return fmt.Errorf("%w: %s", ErrDeliveryFailed, out.Message)
	}
	return nil
}
