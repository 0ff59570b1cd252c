package textenc

import (
	"bytes"
)

// Kind is the classification of a file for rewriting purposes.
type Kind int

const (
	Text Kind = iota
	Binary
)

func (k Kind) String() string {
	if k == Binary {
		return "binary"
	}
	return "text"
}

// Classifier decides whether a file may be rewritten. sample holds the
// leading bytes of the file; complete is true when sample is the whole file.
type Classifier interface {
	Classify(path string, sample []byte, complete bool) Kind
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(path string, sample []byte, complete bool) Kind

func (f ClassifierFunc) Classify(path string, sample []byte, complete bool) Kind {
	return f(path, sample, complete)
}

// DecodeClassifier treats a file as text when its sample decodes with Codec.
type DecodeClassifier struct {
	Codec Codec
	// RejectNUL additionally classifies any sample containing a NUL byte as
	// binary. Ignored for UTF-16 codecs where NUL bytes are normal.
	RejectNUL bool
}

// NewDecodeClassifier returns a DecodeClassifier for codec.
func NewDecodeClassifier(codec Codec, rejectNUL bool) *DecodeClassifier {
	return &DecodeClassifier{Codec: codec, RejectNUL: rejectNUL}
}

func (c *DecodeClassifier) Classify(_ string, sample []byte, complete bool) Kind {
	codec := c.Codec
	if codec == nil {
		codec = UTF8()
	}
	if !complete {
		sample = trimPartial(codec, sample)
	}
	if c.RejectNUL && !isWide(codec) && bytes.IndexByte(sample, 0) >= 0 {
		return Binary
	}
	if _, err := codec.Decode(sample); err != nil {
		return Binary
	}
	return Text
}

func isWide(c Codec) bool {
	switch c.Name() {
	case "utf-16le", "utf-16be":
		return true
	}
	return false
}

// Classifier modes accepted by NewClassifier.
const (
	ModeDecode = "decode"
	ModeStrict = "strict"
)

// NewClassifier builds the classifier named by mode. "decode" accepts
// anything the codec can decode; "strict" also rejects NUL bytes.
func NewClassifier(mode string, codec Codec) Classifier {
	return NewDecodeClassifier(codec, mode == ModeStrict)
}

// BOMInfo returns the encoding announced by a leading byte order mark.
func BOMInfo(input []byte) (encoding string, bomSize int, found bool) {
	switch {
	case bytes.HasPrefix(input, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return "utf-32be", 4, true
	case bytes.HasPrefix(input, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return "utf-32le", 4, true
	case bytes.HasPrefix(input, []byte{0xEF, 0xBB, 0xBF}):
		return "utf-8", 3, true
	case bytes.HasPrefix(input, []byte{0xFE, 0xFF}):
		return "utf-16be", 2, true
	case bytes.HasPrefix(input, []byte{0xFF, 0xFE}):
		return "utf-16le", 2, true
	}
	return "", 0, false
}
