// Package textenc decides whether a file is text and converts between its
// on-disk bytes and Go strings.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	// ErrUndecodable marks content that is not valid in the codec's encoding.
	ErrUndecodable = errors.New("content is not valid text in the configured encoding")
	// ErrUnencodable marks a string the codec cannot represent.
	ErrUnencodable = errors.New("content cannot be encoded in the configured encoding")
)

// Codec converts file bytes to text and back using one fixed encoding.
type Codec interface {
	Name() string
	Decode(b []byte) (string, error)
	Encode(s string) ([]byte, error)
}

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

// Lookup resolves an encoding label ("utf-8", "windows-1252", "utf-16le", ...).
// UTF-8 gets a strict native codec; every other label goes through the
// WHATWG index in golang.org/x/text.
func Lookup(name string) (Codec, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	switch label {
	case "", "utf-8", "utf8":
		return UTF8(), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = label
	}
	if canonical == "utf-8" {
		return UTF8(), nil
	}
	return &xtextCodec{name: canonical, enc: enc}, nil
}

type utf8Codec struct{}

// UTF8 returns the strict UTF-8 codec. Any invalid byte sequence fails decoding.
func UTF8() Codec { return utf8Codec{} }

func (utf8Codec) Name() string { return "utf-8" }

func (utf8Codec) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrUndecodable
	}
	return string(b), nil
}

func (utf8Codec) Encode(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, ErrUnencodable
	}
	return []byte(s), nil
}

// xtextCodec wraps an x/text encoding. x/text decoders substitute U+FFFD for
// bytes they cannot map instead of failing, so a replacement rune in the
// output counts as a decode failure.
type xtextCodec struct {
	name string
	enc  encoding.Encoding
}

func (c *xtextCodec) Name() string { return c.name }

func (c *xtextCodec) Decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", ErrUndecodable
	}
	return string(out), nil
}

func (c *xtextCodec) Encode(s string) ([]byte, error) {
	out, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnencodable, err)
	}
	return out, nil
}

// trimPartial drops a trailing incomplete character from a sample cut at an
// arbitrary byte offset, so the cut alone never makes a file look binary.
func trimPartial(c Codec, sample []byte) []byte {
	switch c.Name() {
	case "utf-8":
		for i := 1; i <= utf8.UTFMax-1 && i <= len(sample); i++ {
			start := len(sample) - i
			if utf8.RuneStart(sample[start]) {
				if !utf8.FullRune(sample[start:]) {
					return sample[:start]
				}
				break
			}
		}
	case "utf-16le", "utf-16be":
		if len(sample)%2 == 1 {
			return sample[:len(sample)-1]
		}
	}
	return sample
}
