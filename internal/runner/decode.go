package runner

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Decode converts raw console output to a Go string.
func Decode(enc Encoding, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var dec *encoding.Decoder
	switch enc {
	case "", EncodingUTF8:
		return string(raw), nil
	case EncodingOEM866:
		dec = charmap.CodePage866.NewDecoder()
	case EncodingUTF16LE:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	default:
		return "", fmt.Errorf("unknown output encoding %q", enc)
	}
	out, err := dec.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s output: %w", enc, err)
	}
	return string(out), nil
}

// ParseEncoding validates a configured encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case EncodingOEM866, EncodingUTF8, EncodingUTF16LE:
		return e, nil
	case "cp866", "ibm866":
		return EncodingOEM866, nil
	default:
		return "", fmt.Errorf("unknown output encoding %q", s)
	}
}
