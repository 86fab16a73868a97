// Package console transcodes captured process output between a console
// codepage and UTF-8. Consoles on Windows may hand back bytes in a legacy
// OEM codepage; this is a presentation concern at the edge of the capture
// path, not part of the I/O engine.
package console

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// lookup resolves a codepage name ("ibm437", "windows-1252", "gbk", ...)
// through the IANA registry.
func lookup(codepage string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(codepage)
	if err != nil {
		return nil, fmt.Errorf("unknown codepage %q: %w", codepage, err)
	}
	if enc == nil {
		// The index knows the name but has no decoder for it.
		return nil, fmt.Errorf("codepage %q has no decoder", codepage)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}

// ToUTF8 decodes raw console bytes in the named codepage into UTF-8.
// A UTF-8 codepage returns the input unchanged.
func ToUTF8(codepage string, raw []byte) ([]byte, error) {
	enc, err := lookup(codepage)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return raw, nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", codepage, err)
	}
	return out, nil
}

// FromUTF8 encodes UTF-8 text into the named console codepage.
func FromUTF8(codepage string, text []byte) ([]byte, error) {
	enc, err := lookup(codepage)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return text, nil
	}
	out, err := enc.NewEncoder().Bytes(text)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", codepage, err)
	}
	return out, nil
}
