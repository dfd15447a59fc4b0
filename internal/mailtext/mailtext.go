// Package mailtext reduces a raw RFC 5322 message to the text the extractor reads.
package mailtext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/net/html"
)

// maxPartBytes bounds a single decoded body part.
const maxPartBytes = 1 << 20

// Message is the decoded form of one mail.
type Message struct {
	From    string
	Subject string
	Body    string
}

// Decode reads a raw message. The plain text part is preferred; when a message
// only carries HTML, the HTML is flattened to text.
func Decode(r io.Reader) (Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && mr == nil {
		return Message{}, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	var out Message
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		out.From = from[0].Address
	}
	out.Subject, _ = mr.Header.Subject()

	var plain, htmlBody string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Unknown charsets still yield a readable part; anything else ends the walk.
			if part == nil {
				break
			}
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		body, err := io.ReadAll(io.LimitReader(part.Body, maxPartBytes))
		if err != nil {
			continue
		}
		switch {
		case ct == "text/plain" && plain == "":
			plain = string(body)
		case ct == "text/html" && htmlBody == "":
			htmlBody = string(body)
		}
	}

	switch {
	case strings.TrimSpace(plain) != "":
		out.Body = plain
	case htmlBody != "":
		out.Body = HTMLToText(htmlBody)
	default:
		return out, errors.New("message has no text body")
	}
	return out, nil
}

// HTMLToText keeps the visible text of an HTML document, one block per line.
func HTMLToText(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var b bytes.Buffer
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapse(b.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "head":
				skip++
			case "br", "p", "div", "tr", "li", "table", "h1", "h2", "h3":
				b.WriteByte('\n')
			case "td":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "head":
				if skip > 0 {
					skip--
				}
			case "p", "div", "tr":
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
