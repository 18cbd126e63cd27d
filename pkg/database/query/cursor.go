package query

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Cursor is an opaque position within a paginated result set. It encodes the
// record id the next page starts after.
type Cursor []byte

var (
	EmptyCursor Cursor = Cursor([]byte{})

	ErrInvalidCursor = errors.New("invalid cursor")
)

func ToCursor(val uint64) Cursor {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	return b
}

// FromBase58 parses a cursor previously encoded with ToBase58
func FromBase58(val string) (Cursor, error) {
	if len(val) == 0 {
		return EmptyCursor, nil
	}

	b, err := base58.Decode(val)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidCursor, err.Error())
	}
	if len(b) != 8 {
		return nil, ErrInvalidCursor
	}
	return b, nil
}

func (c Cursor) ToUint64() uint64 {
	if len(c) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(c)
}

func (c Cursor) ToBase58() string {
	return base58.Encode(c)
}
