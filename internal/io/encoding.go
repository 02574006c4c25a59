package io

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding decodes raw dataset bytes into UTF-8 text. Decode fails when the
// input contains a byte sequence the encoding does not define.
type Encoding struct {
	Name   string
	decode func([]byte) (string, error)
}

// Decode converts raw bytes to UTF-8 text.
func (e Encoding) Decode(raw []byte) (string, error) {
	return e.decode(raw)
}

// DefaultEncodings is the fallback order used when a profile does not pin one.
var DefaultEncodings = []string{"utf-8", "latin-1", "cp1252", "iso-8859-1"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// cp1252 leaves these five code points unassigned.
var cp1252Undefined = map[byte]bool{0x81: true, 0x8D: true, 0x8F: true, 0x90: true, 0x9D: true}

var encodingsByName = map[string]Encoding{
	"utf-8": {Name: "utf-8", decode: decodeUTF8},
	"latin-1": {Name: "latin-1", decode: func(raw []byte) (string, error) {
		return decodeCharmap(charmap.ISO8859_1, raw)
	}},
	"iso-8859-1": {Name: "iso-8859-1", decode: func(raw []byte) (string, error) {
		return decodeCharmap(charmap.ISO8859_1, raw)
	}},
	"cp1252": {Name: "cp1252", decode: func(raw []byte) (string, error) {
		for i, b := range raw {
			if cp1252Undefined[b] {
				return "", fmt.Errorf("byte 0x%02x at offset %d is undefined in cp1252", b, i)
			}
		}
		return decodeCharmap(charmap.Windows1252, raw)
	}},
}

var encodingAliases = map[string]string{
	"utf8":         "utf-8",
	"latin1":       "latin-1",
	"l1":           "latin-1",
	"iso8859-1":    "iso-8859-1",
	"iso_8859_1":   "iso-8859-1",
	"windows-1252": "cp1252",
	"windows1252":  "cp1252",
}

// LookupEncoding resolves an encoding by name or common alias.
func LookupEncoding(name string) (Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[key]; ok {
		key = alias
	}
	enc, ok := encodingsByName[key]
	if !ok {
		return Encoding{}, fmt.Errorf("unknown encoding %q", name)
	}
	return enc, nil
}

func decodeUTF8(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			return "", fmt.Errorf("invalid utf-8 byte 0x%02x at offset %d", raw[i], i)
		}
		i += size
	}
	return "", fmt.Errorf("invalid utf-8 input")
}

func decodeCharmap(cm *charmap.Charmap, raw []byte) (string, error) {
	out, err := cm.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
