package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends through an SMTP server. smtp.SendMail upgrades to
// STARTTLS when the server offers it; PLAIN auth is used when a user is set.
type SMTPSender struct {
	addr string
	host string
	user string
	pass string
	from string
	send sendFunc
	now  func() time.Time
}

func NewSMTPSender(server string, port int, user, pass, from string) *SMTPSender {
	if port <= 0 {
		port = 587
	}
	if from == "" {
		from = user
	}
	return &SMTPSender{
		addr: net.JoinHostPort(server, strconv.Itoa(port)),
		host: server,
		user: user,
		pass: pass,
		from: from,
		send: smtp.SendMail,
		now:  time.Now,
	}
}

func (s *SMTPSender) Send(ctx context.Context, recipient, subject, html string) error {
	to, err := validRecipient(recipient)
	if err != nil {
		return err
	}
	msg, err := buildMessage(s.from, to, subject, html, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	// smtp.SendMail has no context; the result is abandoned on cancel.
	done := make(chan error, 1)
	go func() {
		done <- s.send(s.addr, auth, s.from, []string{to}, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, ctx.Err())
	}
}

// buildMessage renders a multipart/alternative message with one HTML part.
func buildMessage(from, to, subject, html string, date time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(html)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", date.Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
