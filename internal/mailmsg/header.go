package mailmsg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
)

var (
	encodedWordRE = regexp.MustCompile(`=\?([^?]*?)\?([qQbB])\?(.*?)\?=`)

	// rawWordDecoder undoes only the Q/B transfer encoding. utf-8, us-ascii and iso-8859-1 come
	// back as UTF-8; other charsets come back as their raw bytes for charset.Reader.
	rawWordDecoder = &mime.WordDecoder{
		CharsetReader: func(_ string, input io.Reader) (io.Reader, error) {
			return input, nil
		},
	}
)

type word struct {
	text    string
	encoded bool
	charset string
}

// FirstSegment decodes only the first segment of an RFC 2047 header value.
//
// The value is split into plain runs and encoded words. Whitespace between two encoded words is
// dropped and neighbouring words sharing a charset form one segment, whose bytes are joined before
// the charset is decoded. A value without encoded words is returned as is. Anything after the first
// segment is discarded. The result must be valid UTF-8.
func FirstSegment(value string) (string, error) {
	if !encodedWordRE.MatchString(value) {
		return validUTF8(value)
	}

	words := dropSeparators(splitWords(value))
	if len(words) == 0 {
		return "", nil
	}

	first := words[0]
	if !first.encoded {
		parts := []string{first.text}
		for _, w := range words[1:] {
			if w.encoded {
				break
			}
			parts = append(parts, w.text)
		}
		return validUTF8(strings.Join(parts, " "))
	}

	var raw []byte
	for _, w := range words {
		if !w.encoded || w.charset != first.charset {
			break
		}
		s, err := rawWordDecoder.Decode(w.text)
		if err != nil {
			return "", fmt.Errorf("decode %q failed: %w", w.text, err)
		}
		raw = append(raw, s...)
	}

	s, err := decodeCharset(first.charset, raw)
	if err != nil {
		return "", err
	}

	return validUTF8(s)
}

func decodeCharset(name string, raw []byte) (string, error) {
	switch name {
	case "utf-8", "us-ascii", "iso-8859-1":
		return string(raw), nil
	}

	r, err := charset.Reader(name, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("charset.Reader failed: %w", err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode %s failed: %w", name, err)
	}

	return string(b), nil
}

func validUTF8(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", errors.New("header is not valid UTF-8")
	}

	return s, nil
}

func splitWords(value string) []word {
	var words []word
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSuffix(line, "\r")
		first := true
		plain := func(s string) {
			if first {
				s = strings.TrimLeft(s, " \t")
				first = false
			}
			if s != "" {
				words = append(words, word{text: s})
			}
		}

		pos := 0
		for _, m := range encodedWordRE.FindAllStringSubmatchIndex(line, -1) {
			plain(line[pos:m[0]])
			words = append(words, word{
				text:    line[m[0]:m[1]],
				encoded: true,
				charset: strings.ToLower(line[m[2]:m[3]]),
			})
			pos = m[1]
		}
		plain(line[pos:])
	}

	return words
}

// dropSeparators removes whitespace-only plain words that sit between two encoded words.
func dropSeparators(words []word) []word {
	out := make([]word, 0, len(words))
	for i, w := range words {
		if !w.encoded && i > 0 && i < len(words)-1 &&
			words[i-1].encoded && words[i+1].encoded && strings.TrimSpace(w.text) == "" {
			continue
		}
		out = append(out, w)
	}

	return out
}
