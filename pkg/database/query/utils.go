// Package query contains pagination helpers shared by the data stores.
package query

import (
	"fmt"
	"strings"
)

// MaxPagingLimit bounds the page size accepted by stores
const MaxPagingLimit = 1000

// ClampLimit maps 0 and anything above MaxPagingLimit to MaxPagingLimit
func ClampLimit(limit uint64) uint64 {
	if limit == 0 || limit > MaxPagingLimit {
		return MaxPagingLimit
	}
	return limit
}

// PaginateQuery appends id based paging to a query whose filter is wrapped in
// brackets, and returns the extended argument list.
//
//	PaginateQuery("SELECT * FROM vaults WHERE (creator = $1)", []interface{}{creator}, ToCursor(5), 10, Ascending)
//	> "SELECT * FROM vaults WHERE (creator = $1) AND id > $2 ORDER BY id ASC LIMIT $3"
func PaginateQuery(base string, args []interface{},
	cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {

	var sb strings.Builder
	sb.WriteString(base)

	if len(cursor) > 0 {
		args = append(args, cursor.ToUint64())
		fmt.Fprintf(&sb, " AND id %s $%d", direction.comparator(), len(args))
	}

	args = append(args, ClampLimit(limit))
	fmt.Fprintf(&sb, " ORDER BY id %s LIMIT $%d", direction.sql(), len(args))

	return sb.String(), args
}
