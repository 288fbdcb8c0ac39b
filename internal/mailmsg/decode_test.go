package mailmsg_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
	"github.com/hal9000y/gmail-imap-mcp/internal/mailmsg"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func TestFirstSegment(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		expected string
	}{
		{
			name:     "plain ascii",
			value:    "Weekly report",
			expected: "Weekly report",
		},
		{
			name:     "plain sender with address",
			value:    "Alice Example <alice@example.com>",
			expected: "Alice Example <alice@example.com>",
		},
		{
			name:     "empty",
			value:    "",
			expected: "",
		},
		{
			name:     "single utf-8 q word",
			value:    "=?utf-8?q?Caf=C3=A9_au_lait?=",
			expected: "Café au lait",
		},
		{
			name:     "single utf-8 b word",
			value:    "=?UTF-8?B?0J/RgNC40LLQtdGC?=",
			expected: "Привет",
		},
		{
			name:     "latin-1 word",
			value:    "=?iso-8859-1?q?na=EFve?=",
			expected: "naïve",
		},
		{
			name:     "adjacent words with one charset form one segment",
			value:    "=?utf-8?q?Hello_?= =?utf-8?q?World?=",
			expected: "Hello World",
		},
		{
			name:     "second charset is dropped",
			value:    "=?utf-8?q?Caf=C3=A9?= =?iso-8859-1?q?na=EFve?=",
			expected: "Café",
		},
		{
			name:     "plain prefix wins over encoded tail",
			value:    "Re: =?utf-8?q?Caf=C3=A9?=",
			expected: "Re: ",
		},
		{
			name:     "encoded name drops the address",
			value:    "=?utf-8?b?Sm9zw6k=?= <jose@example.com>",
			expected: "José",
		},
		{
			name:     "stateful charset split across words",
			value:    "=?iso-2022-jp?b?GyRCJDMkcw==?= =?iso-2022-jp?b?JEskQSRPGyhC?=",
			expected: "こんにちは",
		},
		{
			name:     "leading whitespace before first word",
			value:    "  =?utf-8?q?Hi?=",
			expected: "Hi",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mailmsg.FirstSegment(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFirstSegmentErrors(t *testing.T) {
	cases := map[string]string{
		"unknown charset":        "=?x-no-such-charset?q?abc?=",
		"invalid utf-8 b word":   "=?utf-8?b?/w==?=",
		"invalid utf-8 q word":   "=?utf-8?q?Caf=E9?=",
		"invalid utf-8 plain":    "Caf\xe9",
		"invalid prefix of word": "Caf\xe9 =?utf-8?q?ok?=",
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := mailmsg.FirstSegment(value)
			require.Error(t, err)
		})
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name     string
		raw      []byte
		expected mailmsg.Message
	}{
		{
			name: "single part plain text",
			raw: crlf(
				"From: Alice <alice@example.com>",
				"Subject: Lunch?",
				"Date: Mon, 06 Oct 2025 10:00:00 +0000",
				"Content-Type: text/plain; charset=utf-8",
				"",
				"Are you free at noon?",
			),
			expected: mailmsg.Message{
				Header: mailmsg.Header{
					From:    "Alice <alice@example.com>",
					Subject: "Lunch?",
					Date:    "Mon, 06 Oct 2025 10:00:00 +0000",
				},
				Body: "Are you free at noon?",
			},
		},
		{
			name: "encoded subject and quoted-printable latin-1 body",
			raw: crlf(
				"From: =?utf-8?q?Ren=C3=A9?= <rene@example.com>",
				"Subject: =?utf-8?b?UsOpdW5pb24=?=",
				"Date: Tue, 07 Oct 2025 08:30:00 +0200",
				"Content-Type: text/plain; charset=iso-8859-1",
				"Content-Transfer-Encoding: quoted-printable",
				"",
				"Bient=F4t",
			),
			expected: mailmsg.Message{
				Header: mailmsg.Header{
					From:    "René",
					Subject: "Réunion",
					Date:    "Tue, 07 Oct 2025 08:30:00 +0200",
				},
				Body: "Bientôt",
			},
		},
		{
			name: "single part html is returned as is",
			raw: crlf(
				"From: news@example.com",
				"Subject: News",
				"Content-Type: text/html",
				"",
				"<p>Hello</p>",
			),
			expected: mailmsg.Message{
				Header: mailmsg.Header{From: "news@example.com", Subject: "News"},
				Body:   "<p>Hello</p>",
			},
		},
		{
			name: "multipart alternative picks text/plain",
			raw: crlf(
				"From: bob@example.com",
				"Subject: Alt",
				"MIME-Version: 1.0",
				`Content-Type: multipart/alternative; boundary="b1"`,
				"",
				"--b1",
				"Content-Type: text/html",
				"",
				"<b>html</b>",
				"--b1",
				"Content-Type: text/plain; charset=utf-8",
				"Content-Transfer-Encoding: base64",
				"",
				"cGxhaW4gdGV4dA==",
				"--b1--",
				"",
			),
			expected: mailmsg.Message{
				Header: mailmsg.Header{From: "bob@example.com", Subject: "Alt"},
				Body:   "plain text",
			},
		},
		{
			name: "nested multipart finds first text/plain depth first",
			raw: crlf(
				"From: carol@example.com",
				"Subject: Nested",
				"MIME-Version: 1.0",
				`Content-Type: multipart/mixed; boundary="outer"`,
				"",
				"--outer",
				`Content-Type: multipart/alternative; boundary="inner"`,
				"",
				"--inner",
				"Content-Type: text/plain",
				"",
				"inner text",
				"--inner",
				"Content-Type: text/html",
				"",
				"<i>inner</i>",
				"--inner--",
				"--outer",
				"Content-Type: text/plain",
				"",
				"outer text",
				"--outer--",
				"",
			),
			expected: mailmsg.Message{
				Header: mailmsg.Header{From: "carol@example.com", Subject: "Nested"},
				Body:   "inner text",
			},
		},
		{
			name: "multipart without text/plain has empty body",
			raw: crlf(
				"From: dave@example.com",
				"Subject: Only html",
				"MIME-Version: 1.0",
				`Content-Type: multipart/mixed; boundary="b2"`,
				"",
				"--b2",
				"Content-Type: text/html",
				"",
				"<p>only</p>",
				"--b2",
				"Content-Type: application/pdf",
				"Content-Transfer-Encoding: base64",
				"",
				"JVBERg==",
				"--b2--",
				"",
			),
			expected: mailmsg.Message{
				Header: mailmsg.Header{From: "dave@example.com", Subject: "Only html"},
			},
		},
		{
			name: "part without content type counts as text/plain",
			raw: crlf(
				"From: erin@example.com",
				"Subject: Bare part",
				"MIME-Version: 1.0",
				`Content-Type: multipart/mixed; boundary="b3"`,
				"",
				"--b3",
				"",
				"bare body",
				"--b3--",
				"",
			),
			expected: mailmsg.Message{
				Header: mailmsg.Header{From: "erin@example.com", Subject: "Bare part"},
				Body:   "bare body",
			},
		},
		{
			name: "missing headers decode to empty strings",
			raw: crlf(
				"Content-Type: text/plain",
				"",
				"no headers",
			),
			expected: mailmsg.Message{Body: "no headers"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mailmsg.Decode(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{
			name: "unknown body charset",
			raw: crlf(
				"From: a@example.com",
				"Subject: x",
				"Content-Type: text/plain; charset=x-no-such-charset",
				"",
				"body",
			),
		},
		{
			name: "undeclared non utf-8 body",
			raw: append(crlf(
				"From: a@example.com",
				"Subject: x",
				"",
				"caf",
			), 0xe9),
		},
		{
			name: "invalid utf-8 in encoded subject",
			raw: crlf(
				"From: a@example.com",
				"Subject: =?utf-8?q?Caf=E9?=",
				"",
				"body",
			),
		},
		{
			name: "invalid utf-8 in encoded sender",
			raw: crlf(
				"From: =?utf-8?b?/w==?= <a@example.com>",
				"Subject: x",
				"",
				"body",
			),
		},
		{
			name: "unknown charset in encoded subject",
			raw: crlf(
				"From: a@example.com",
				"Subject: =?x-no-such-charset?q?abc?=",
				"",
				"body",
			),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mailmsg.Decode(tc.raw)
			require.Error(t, err)
			assert.True(t, mailerr.Is(err, mailerr.KindDecode), "expected decode error, got %v", err)
		})
	}
}

func TestDecodeHeaderInvalidSubject(t *testing.T) {
	_, err := mailmsg.DecodeHeader(crlf(
		"From: a@example.com",
		"Subject: =?utf-8?q?Caf=E9?=",
		"",
		"",
	))

	require.Error(t, err)
	assert.True(t, mailerr.Is(err, mailerr.KindDecode), "expected decode error, got %v", err)
}

func TestDecodeHeaderIgnoresBody(t *testing.T) {
	raw := crlf(
		"From: a@example.com",
		"Subject: =?utf-8?q?Hall=C3=B6?=",
		"Date: Wed, 08 Oct 2025 12:00:00 +0000",
		"Content-Type: text/plain; charset=x-no-such-charset",
		"",
		"body that would not decode",
	)

	h, err := mailmsg.DecodeHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, mailmsg.Header{
		From:    "a@example.com",
		Subject: "Hallö",
		Date:    "Wed, 08 Oct 2025 12:00:00 +0000",
	}, h)
}
