// Package imapclient opens user mailboxes over IMAP and pulls raw messages.
package imapclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/textproto"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
)

const (
	defaultTLSPort   = 993
	defaultPlainPort = 143
	fetchBuffer      = 16
)

type Dialer struct {
	timeout time.Duration
	log     *slog.Logger
}

func NewDialer(log *slog.Logger, timeout time.Duration) *Dialer {
	return &Dialer{timeout: timeout, log: log}
}

// Session is one logged-in connection with INBOX selected.
type Session struct {
	c   *client.Client
	log *slog.Logger
}

func (d *Dialer) Connect(ctx context.Context, p dto.MailboxParams) (*Session, error) {
	port := p.Port
	if port == 0 {
		port = defaultPlainPort
		if p.Secure {
			port = defaultTLSPort
		}
	}
	addr := net.JoinHostPort(p.Host, fmt.Sprint(port))

	nd := &net.Dialer{Timeout: d.timeout}
	var (
		c   *client.Client
		err error
	)
	if p.Secure {
		c, err = client.DialWithDialerTLS(nd, addr, &tls.Config{ServerName: p.Host})
	} else {
		c, err = client.DialWithDialer(nd, addr)
	}
	if err != nil {
		return nil, errs.NewExternalServiceError("imap", true, "connect failed", err)
	}

	// Cancelling ctx tears the connection down, which unblocks any pending command.
	stop := context.AfterFunc(ctx, func() { _ = c.Terminate() })
	if err := c.Login(p.User, p.Password); err != nil {
		stop()
		_ = c.Logout()
		return nil, errs.NewExternalServiceError("imap", false, "login failed", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		stop()
		_ = c.Logout()
		return nil, errs.NewExternalServiceError("imap", false, "select INBOX failed", err)
	}
	stop()

	return &Session{c: c, log: d.log}, nil
}

// Search returns sequence numbers for mail matching q.
func (s *Session) Search(ctx context.Context, q dto.MailSearch) ([]uint32, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.c.Terminate() })
	defer stop()

	ids, err := s.c.Search(buildCriteria(q))
	if err != nil {
		return nil, errs.NewExternalServiceError("imap", true, "search failed", err)
	}
	return ids, nil
}

// Fetch downloads the full RFC 822 body of each sequence number. SEARCH SINCE
// only compares dates, so messages received before since are dropped here.
func (s *Session) Fetch(ctx context.Context, ids []uint32, since time.Time) ([]dto.MailMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	stop := context.AfterFunc(ctx, func() { _ = s.c.Terminate() })
	defer stop()

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchInternalDate}

	messages := make(chan *imap.Message, fetchBuffer)
	done := make(chan error, 1)
	go func() {
		done <- s.c.Fetch(seqset, items, messages)
	}()

	out := make([]dto.MailMessage, 0, len(ids))
	skipped := 0
	for msg := range messages {
		if receivedBefore(msg, since) {
			skipped++
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			s.log.Warn("imap body read failed", "seq", msg.SeqNum, "error", err)
			continue
		}
		out = append(out, dto.MailMessage{SeqNum: msg.SeqNum, ReceivedAt: msg.InternalDate, Raw: raw})
	}
	if err := <-done; err != nil {
		return out, errs.NewExternalServiceError("imap", true, "fetch failed", err)
	}
	if skipped > 0 {
		s.log.Debug("dropped mail older than search window", "skipped", skipped, "since", since)
	}
	return out, nil
}

func receivedBefore(msg *imap.Message, since time.Time) bool {
	if since.IsZero() || msg.InternalDate.IsZero() {
		return false
	}
	return msg.InternalDate.Before(since)
}

func (s *Session) Close() error {
	return s.c.Logout()
}

func buildCriteria(q dto.MailSearch) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	if !q.Since.IsZero() {
		criteria.Since = q.Since
	}
	if q.UnseenOnly {
		criteria.WithoutFlags = []string{imap.SeenFlag}
	}
	if from := senderCriteria(q.Senders); from != nil {
		if len(from.Or) == 0 {
			criteria.Header = from.Header
		} else {
			criteria.Or = from.Or
		}
	}
	return criteria
}

// senderCriteria folds the allow-list into nested ORs: OR a (OR b (OR c d)).
func senderCriteria(senders []string) *imap.SearchCriteria {
	if len(senders) == 0 {
		return nil
	}
	leaf := imap.NewSearchCriteria()
	leaf.Header = textproto.MIMEHeader{"From": {senders[0]}}
	if len(senders) == 1 {
		return leaf
	}
	node := imap.NewSearchCriteria()
	node.Or = [][2]*imap.SearchCriteria{{leaf, senderCriteria(senders[1:])}}
	return node
}

// Collect runs one connect, search, fetch cycle and always logs out afterwards.
func (d *Dialer) Collect(ctx context.Context, p dto.MailboxParams, q dto.MailSearch) ([]dto.MailMessage, error) {
	session, err := d.Connect(ctx, p)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			d.log.Debug("imap logout failed", "host", p.Host, "error", err)
		}
	}()

	ids, err := session.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return session.Fetch(ctx, ids, q.Since)
}
