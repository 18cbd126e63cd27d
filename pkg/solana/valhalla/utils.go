package valhalla

import (
	"crypto/ed25519"
	"encoding/binary"
	"strings"

	"github.com/mr-tron/base58"
)

func putDiscriminator(dst []byte, v []byte, offset *int) {
	copy(dst[*offset:], v)
	*offset += 8
}
func getDiscriminator(src []byte, dst *[]byte, offset *int) {
	*dst = make([]byte, 8)
	copy(*dst, src[*offset:])
	*offset += 8
}

func putKey(dst []byte, v ed25519.PublicKey, offset *int) {
	copy(dst[*offset:], v)
	*offset += ed25519.PublicKeySize
}
func getKey(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
}

func putBool(dst []byte, v bool, offset *int) {
	if v {
		dst[*offset] = 1
	} else {
		dst[*offset] = 0
	}
	*offset += 1
}
func getBool(src []byte, dst *bool, offset *int) {
	*dst = src[*offset] == 1
	*offset += 1
}

func putUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += 1
}
func getUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[*offset]
	*offset += 1
}

func putUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}
func getUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
}

func putName(dst []byte, v [NameSize]byte, offset *int) {
	copy(dst[*offset:], v[:])
	*offset += NameSize
}
func getName(src []byte, dst *[NameSize]byte, offset *int) {
	copy(dst[:], src[*offset:*offset+NameSize])
	*offset += NameSize
}

// Borsh strings are a u32 length prefix followed by the utf-8 bytes
func putString(dst []byte, v string, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], uint32(len(v)))
	*offset += 4
	copy(dst[*offset:], v)
	*offset += len(v)
}
func getString(src []byte, dst *string, offset *int) bool {
	if len(src) < *offset+4 {
		return false
	}
	length := int(binary.LittleEndian.Uint32(src[*offset:]))
	*offset += 4
	if len(src) < *offset+length {
		return false
	}
	*dst = string(src[*offset : *offset+length])
	*offset += length
	return true
}
func stringSize(v string) int {
	return 4 + len(v)
}

// ToName converts a display label into the fixed-size, zero-padded name. Labels
// longer than NameSize bytes are truncated.
func ToName(value string) [NameSize]byte {
	var name [NameSize]byte
	copy(name[:], value)
	return name
}

// NameToString strips the zero padding of a fixed-size name.
func NameToString(name [NameSize]byte) string {
	return strings.TrimRight(string(name[:]), string([]byte{0}))
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
