package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopSender(t *testing.T) {
	err := NoopSender{}.Send(context.Background(), "a@b.c", "s", "<p>x</p>")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewSelectsTransport(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Options{Transport: "smtp"})
	require.NoError(t, err)
	assert.IsType(t, NoopSender{}, s)

	s, err = New(ctx, Options{Transport: "SMTP", SMTPServer: "mail.example.com"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	s, err = New(ctx, Options{Transport: "relay", RelayURL: "http://relay.local/send"})
	require.NoError(t, err)
	assert.IsType(t, &RelaySender{}, s)

	s, err = New(ctx, Options{Transport: "none", SMTPServer: "mail.example.com"})
	require.NoError(t, err)
	assert.IsType(t, NoopSender{}, s)

	_, err = New(ctx, Options{Transport: "fax"})
	assert.Error(t, err)
}

func TestSMTPSenderSend(t *testing.T) {
	s := NewSMTPSender("mail.example.com", 0, "bot@lumiere.example", "secret", "")
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err := s.Send(context.Background(), "Guest <guest@example.com>", "🍽️ Your Bill", "<p>Total: €36.96</p>")
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "bot@lumiere.example", gotFrom)
	assert.Equal(t, []string{"guest@example.com"}, gotTo)

	msg, err := mail.ReadMessage(strings.NewReader(string(gotMsg)))
	require.NoError(t, err)
	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "🍽️ Your Bill", subject)
	assert.Equal(t, "guest@example.com", msg.Header.Get("To"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	part, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=UTF-8", part.Header.Get("Content-Type"))
	body, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, "<p>Total: €36.96</p>", string(body))
}

func TestSMTPSenderFailures(t *testing.T) {
	s := NewSMTPSender("mail.example.com", 2525, "", "", "noreply@lumiere.example")
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 authentication failed")
	}

	err := s.Send(context.Background(), "guest@example.com", "s", "<p/>")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorContains(t, err, "535")

	err = s.Send(context.Background(), "not-an-address", "s", "<p/>")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestSMTPSenderHonoursContext(t *testing.T) {
	s := NewSMTPSender("mail.example.com", 25, "", "", "noreply@lumiere.example")
	release := make(chan struct{})
	defer close(release)
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := s.Send(ctx, "guest@example.com", "s", "<p/>")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestRelaySender(t *testing.T) {
	var got relayRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"Email sent"}`))
	}))
	defer srv.Close()

	s := NewRelaySender(srv.URL, nil)
	require.NoError(t, s.Send(context.Background(), "guest@example.com", "Reservation", "<h2>Confirmed</h2>"))
	assert.Equal(t, relayRequest{RecipientEmail: "guest@example.com", Subject: "Reservation", HTMLBody: "<h2>Confirmed</h2>"}, got)
}

func TestRelaySenderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusBadGateway, `upstream down`},
		{"relay error status", http.StatusOK, `{"status":"error","message":"mailbox full"}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewRelaySender(srv.URL, nil).Send(context.Background(), "guest@example.com", "s", "<p/>")
			assert.ErrorIs(t, err, ErrDeliveryFailed)
		})
	}
}

func TestRelaySenderWithCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"relay-token","token_type":"bearer","expires_in":3600}`))
	})
	var auth string
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewRelaySenderWithCredentials(context.Background(), srv.URL+"/send", srv.URL+"/token", "lumiere", "shh", []string{"mail.send"})
	require.NoError(t, s.Send(context.Background(), "guest@example.com", "s", "<p/>"))
	assert.Equal(t, "Bearer relay-token", auth)
}
