package filter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/net/html"
)

// Message is the part of an RFC 5322 message that triage looks at
type Message struct {
	From    string
	Subject string
	Body    string

	// MessageID and References are used to thread replies; IDs carry no
	// angle brackets
	MessageID  string
	References []string
}

// ParseMessage reads a raw message, decoding headers and extracting a
// plain-text body. text/plain parts are preferred; text/html parts are
// converted only when no plain part exists.
func ParseMessage(r io.Reader) (*Message, error) {
	// an unknown charset still yields a usable reader
	mr, err := mail.CreateReader(r)
	if mr == nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	msg := &Message{}
	if from, err := mr.Header.Text("From"); err == nil {
		msg.From = from
	} else {
		msg.From = mr.Header.Get("From")
	}
	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = mr.Header.Get("Subject")
	}
	if id, err := mr.Header.MessageID(); err == nil {
		msg.MessageID = id
	}
	if refs, err := mr.Header.MsgIDList("References"); err == nil {
		msg.References = refs
	}

	var plain, htmlParts []string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) || message.IsUnknownEncoding(err) {
				continue
			}
			// keep whatever was read before the broken part
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case contentType == "" || strings.HasPrefix(contentType, "text/plain"):
			plain = append(plain, string(body))
		case strings.HasPrefix(contentType, "text/html"):
			htmlParts = append(htmlParts, HTMLToText(string(body)))
		}
	}

	switch {
	case len(plain) > 0:
		msg.Body = strings.Join(plain, "\n")
	case len(htmlParts) > 0:
		msg.Body = strings.Join(htmlParts, "\n")
	}
	msg.Body = strings.TrimSpace(strings.ReplaceAll(msg.Body, "\r\n", "\n"))

	return msg, nil
}

// ParseMessageBytes is ParseMessage over an in-memory message
func ParseMessageBytes(raw []byte) (*Message, error) {
	return ParseMessage(bytes.NewReader(raw))
}

var blockElements = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "table": true, "ul": true, "ol": true,
}

// HTMLToText strips markup from an HTML body. Script and style content is
// dropped and block elements become line breaks.
func HTMLToText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))

	var sb strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseBlankLines(sb.String())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			}
			if blockElements[tag] {
				sb.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if blockElements[tag] {
				sb.WriteByte('\n')
			}

		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
