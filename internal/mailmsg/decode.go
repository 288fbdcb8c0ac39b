// Package mailmsg turns raw RFC 5322 messages into the flat records returned by the email tools.
package mailmsg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
)

// Header holds the decoded headers shown for every email.
type Header struct {
	From    string
	Subject string
	Date    string
}

// Message is a decoded email with its plain-text body.
type Message struct {
	Header
	Body string
}

// DecodeHeader decodes From, Subject and Date without touching the body.
func DecodeHeader(raw []byte) (Header, error) {
	e, err := message.Read(bytes.NewReader(raw))
	if e == nil {
		return Header{}, mailerr.Decode("message.Read", err)
	}

	return decodeHeader(e.Header)
}

// Decode decodes the headers and selects the plain-text body.
//
// Multipart messages use the first text/plain part in depth-first order, or an empty body when
// there is none. Single-part messages use their payload whatever its content type.
func Decode(raw []byte) (Message, error) {
	e, readErr := message.Read(bytes.NewReader(raw))
	if e == nil {
		return Message{}, mailerr.Decode("message.Read", readErr)
	}

	h, err := decodeHeader(e.Header)
	if err != nil {
		return Message{}, err
	}

	msg := Message{Header: h}

	if mr := e.MultipartReader(); mr != nil {
		msg.Body, _, err = firstPlainText(mr)
		if err != nil {
			return Message{}, err
		}

		return msg, nil
	}

	if readErr != nil {
		return Message{}, mailerr.Decode("body", readErr)
	}

	msg.Body, err = readText(e)
	if err != nil {
		return Message{}, err
	}

	return msg, nil
}

func decodeHeader(h message.Header) (Header, error) {
	from, err := FirstSegment(h.Get("From"))
	if err != nil {
		return Header{}, mailerr.Decode("From header", err)
	}

	subject, err := FirstSegment(h.Get("Subject"))
	if err != nil {
		return Header{}, mailerr.Decode("Subject header", err)
	}

	return Header{
		From:    from,
		Subject: subject,
		Date:    h.Get("Date"),
	}, nil
}

func firstPlainText(mr message.MultipartReader) (string, bool, error) {
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		if p == nil {
			return "", false, mailerr.Decode("multipart.NextPart", err)
		}

		if child := p.MultipartReader(); child != nil {
			body, found, err := firstPlainText(child)
			if err != nil || found {
				return body, found, err
			}
			continue
		}

		if contentType(p) != "text/plain" {
			continue
		}
		if err != nil {
			return "", true, mailerr.Decode("text/plain part", err)
		}

		body, err := readText(p)
		return body, true, err
	}
}

// contentType defaults to text/plain when the header is absent or unparsable.
func contentType(e *message.Entity) string {
	t, _, err := e.Header.ContentType()
	if err != nil || t == "" {
		return "text/plain"
	}

	return t
}

func readText(e *message.Entity) (string, error) {
	b, err := io.ReadAll(e.Body)
	if err != nil {
		return "", mailerr.Decode("body", fmt.Errorf("io.ReadAll failed: %w", err))
	}
	if !utf8.Valid(b) {
		return "", mailerr.Decode("body", errors.New("body is not valid UTF-8"))
	}

	return string(b), nil
}
