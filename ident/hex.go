package ident

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const hexDigits = "0123456789abcdef"

// ErrInvalidHex is returned by HexDecode for odd-length or non-hex input.
var ErrInvalidHex = errors.New("ident: invalid hex")

// HexEncode returns the lowercase hex encoding of b, two characters per byte.
func HexEncode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	buf := make([]byte, len(b)*2)
	for i, v := range b {
		buf[i*2] = hexDigits[v>>4]
		buf[i*2+1] = hexDigits[v&0x0f]
	}
	return string(buf)
}

// hexEncodeSlow formats byte by byte. Kept as the reference HexEncode is
// checked against.
func hexEncodeSlow(b []byte) string {
	var sb strings.Builder
	for _, v := range b {
		s := strconv.FormatUint(uint64(v), 16)
		if len(s) == 1 {
			sb.WriteByte('0')
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// HexDecode parses a hex string in either case.
func HexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidHex, len(s))
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, ok1 := fromHexChar(s[i*2])
		lo, ok2 := fromHexChar(s[i*2+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidHex, s[i*2:i*2+2], i*2)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
