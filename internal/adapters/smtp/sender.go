package smtp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
)

// Sender dispatches invitations over SMTP. Each send dials a fresh
// connection; the relay is expected to be a nearby submission agent.
type Sender struct {
	addr     string
	from     string
	username string
	password string
	startTLS bool
	logger   *zap.Logger
}

// NewSender creates a new SMTP sender
func NewSender(addr, from, username, password string, startTLS bool, logger *zap.Logger) *Sender {
	return &Sender{
		addr:     addr,
		from:     from,
		username: username,
		password: password,
		startTLS: startTLS,
		logger:   logger,
	}
}

// Send dispatches one invitation and returns the generated message ID.
// The context deadline bounds the whole exchange; a timeout is reported as a
// dispatch failure.
func (s *Sender) Send(ctx context.Context, invite *core.Invitation) (string, error) {
	msgID := uuid.NewString()
	message := s.buildMessage(msgID, invite)

	// The go-smtp client has no context support, so the exchange runs in a
	// goroutine and the context guards the wait.
	done := make(chan error, 1)
	go func() {
		done <- s.deliver(invite.To, message)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("smtp delivery to %s: %w", invite.To, err)
		}
		s.logger.Debug("Invitation delivered",
			zap.String("to", invite.To),
			zap.String("message_id", msgID))
		return msgID, nil
	case <-ctx.Done():
		return "", fmt.Errorf("smtp delivery to %s: %w", invite.To, ctx.Err())
	}
}

func (s *Sender) deliver(to, message string) error {
	var (
		client *smtp.Client
		err    error
	)
	if s.startTLS {
		client, err = smtp.DialStartTLS(s.addr, nil)
	} else {
		client, err = smtp.Dial(s.addr)
	}
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", s.addr, err)
	}
	defer client.Close()

	if s.username != "" {
		auth := sasl.NewPlainClient("", s.username, s.password)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := client.SendMail(s.from, []string{to}, strings.NewReader(message)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return client.Quit()
}

// buildMessage renders the plain-text invitation. Rich template rendering
// belongs to the notification service; this is the minimal transactional
// form.
func (s *Sender) buildMessage(msgID string, invite *core.Invitation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", invite.To)
	fmt.Fprintf(&b, "Subject: You have been invited to join %s\r\n", invite.RepositoryName)
	fmt.Fprintf(&b, "Message-ID: <%s@snowball>\r\n", msgID)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&b, "%s invited you to join the mailing repository %q.\r\n\r\n",
		invite.InviterID, invite.RepositoryName)
	if invite.RepositoryDescription != "" {
		fmt.Fprintf(&b, "%s\r\n\r\n", invite.RepositoryDescription)
	}
	if len(invite.TopPosts) > 0 {
		b.WriteString("Recent highlights:\r\n")
		for _, post := range invite.TopPosts {
			fmt.Fprintf(&b, "  - %s\r\n", post)
		}
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "Confirm your subscription: %s\r\n", invite.OptInURL)
	fmt.Fprintf(&b, "Not interested? Opt out here: %s\r\n", invite.OptOutURL)
	return b.String()
}
