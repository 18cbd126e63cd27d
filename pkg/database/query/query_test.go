package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateQuery(t *testing.T) {
	base := "SELECT * FROM vaults WHERE (creator = $1)"

	query, opts := PaginateQuery(base, []interface{}{"creator"}, ToCursor(5), 10, Ascending)
	assert.Equal(t, base+" AND id > $2 ORDER BY id ASC LIMIT $3", query)
	assert.Equal(t, []interface{}{"creator", uint64(5), uint64(10)}, opts)

	query, opts = PaginateQuery(base, []interface{}{"creator"}, nil, 0, Descending)
	assert.Equal(t, base+" ORDER BY id DESC LIMIT $2", query)
	assert.Equal(t, []interface{}{"creator", uint64(MaxPagingLimit)}, opts)
}

func TestCursor(t *testing.T) {
	cursor := ToCursor(1234)
	assert.EqualValues(t, 1234, cursor.ToUint64())

	parsed, err := FromBase58(cursor.ToBase58())
	require.NoError(t, err)
	assert.Equal(t, cursor, parsed)

	parsed, err = FromBase58("")
	require.NoError(t, err)
	assert.Empty(t, parsed)

	_, err = FromBase58("2")
	assert.ErrorIs(t, err, ErrInvalidCursor)

	assert.EqualValues(t, 0, Cursor([]byte{1}).ToUint64())
}

func TestOrdering(t *testing.T) {
	o, err := ParseOrdering("DESC")
	require.NoError(t, err)
	assert.Equal(t, Descending, o)
	assert.Equal(t, "desc", o.String())
	assert.Equal(t, "asc", Ascending.String())

	_, err = ParseOrdering("sideways")
	assert.ErrorIs(t, err, ErrInvalidOrdering)
	assert.Equal(t, Descending, ToOrderingWithFallback("sideways", Descending))
	assert.Equal(t, Ascending, ToOrderingWithFallback("", Ascending))
}

func TestClampLimit(t *testing.T) {
	assert.EqualValues(t, MaxPagingLimit, ClampLimit(0))
	assert.EqualValues(t, MaxPagingLimit, ClampLimit(MaxPagingLimit+1))
	assert.EqualValues(t, 25, ClampLimit(25))
}
