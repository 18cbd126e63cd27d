// Package binary reads and writes the fixed little endian layouts of SPL
// accounts. Every helper writes at the start of the slice it is handed and
// advances offset by the width of the field, including any option prefix.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

const (
	keySize    = ed25519.PublicKeySize
	uint64Size = 8
	uint16Size = 2
)

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[:keySize], src)
	*offset += keySize
}

// PutOptionalKey32 writes a COption<Pubkey>. Empty keys encode as None.
func PutOptionalKey32(dst []byte, src []byte, offset *int, optionSize int) {
	putOption(dst, len(src) > 0)
	if len(src) > 0 {
		copy(dst[optionSize:optionSize+keySize], src)
	}
	*offset += optionSize + keySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += uint64Size
}

func PutUint16(dst []byte, v uint16, offset *int) {
	binary.LittleEndian.PutUint16(dst, v)
	*offset += uint16Size
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset++
}

func PutBool(dst []byte, v bool, offset *int) {
	var b uint8
	if v {
		b = 1
	}
	PutUint8(dst, b, offset)
}

// PutOptionalUint64 writes a COption<u64>. Nil encodes as None.
func PutOptionalUint64(dst []byte, v *uint64, offset *int, optionSize int) {
	putOption(dst, v != nil)
	if v != nil {
		binary.LittleEndian.PutUint64(dst[optionSize:], *v)
	}
	*offset += optionSize + uint64Size
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = append(ed25519.PublicKey{}, src[:keySize]...)
	*offset += keySize
}

func GetOptionalKey32(src []byte, dst *ed25519.PublicKey, offset *int, optionSize int) {
	if isSome(src) {
		*dst = append(ed25519.PublicKey{}, src[optionSize:optionSize+keySize]...)
	}
	*offset += optionSize + keySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += uint64Size
}

func GetUint16(src []byte, dst *uint16, offset *int) {
	*dst = binary.LittleEndian.Uint16(src)
	*offset += uint16Size
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset++
}

func GetBool(src []byte, dst *bool, offset *int) {
	*dst = src[0] != 0
	*offset++
}

func GetOptionalUint64(src []byte, dst **uint64, offset *int, optionSize int) {
	if isSome(src) {
		val := binary.LittleEndian.Uint64(src[optionSize:])
		*dst = &val
	}
	*offset += optionSize + uint64Size
}

// Only the first byte of the option tag is ever set
func putOption(dst []byte, some bool) {
	if some {
		dst[0] = 1
	}
}

func isSome(src []byte) bool {
	return src[0] == 1
}
