// Package ordering keeps sibling ranks dense when an item moves.
//
// Folders (siblings share a parentId) and files (siblings share a folderId)
// use the same rule: the moved item takes slot newOrder and every other
// sibling at or after that slot moves down one.
package ordering

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/jackc/pgx/v5"
)

// Sibling is an item's id and current rank.
type Sibling struct {
	ID    int
	Order int
}

// Clamp bounds newOrder to [0, count], where count is the number of other
// siblings. A negative order is rejected.
func Clamp(newOrder, count int) (int, error) {
	if newOrder < 0 {
		return 0, apperr.Invalidf("Invalid order: %d", newOrder)
	}
	if newOrder > count {
		return count, nil
	}
	return newOrder, nil
}

// Plan returns the siblings whose rank must change when an item is inserted
// at newOrder. siblings excludes the moved item and is sorted by current rank.
// Sibling i gets rank i, or i+1 when i >= newOrder. Unchanged siblings are
// left out so callers only write what moved.
func Plan(siblings []Sibling, newOrder int) []Sibling {
	var changes []Sibling
	for i, s := range siblings {
		want := i
		if i >= newOrder {
			want = i + 1
		}
		if s.Order != want {
			changes = append(changes, Sibling{ID: s.ID, Order: want})
		}
	}
	return changes
}

// Scope names the table and parent column that define a sibling group.
// Both are fixed identifiers chosen by the store, never request input.
type Scope struct {
	Table        string
	ParentColumn string
}

// Move places item id under parent at newOrder and rewrites the other
// siblings' ranks. Run it inside a transaction: the read of the siblings and
// the writes must commit together. It returns the order actually assigned.
func (s Scope) Move(ctx context.Context, q pgdb.Querier, id int, parent *int, newOrder int) (int, error) {
	table := pgdb.QuoteIdent(s.Table)
	parentCol := pgdb.QuoteIdent(s.ParentColumn)

	rows, err := q.Query(ctx, fmt.Sprintf(
		`SELECT id, "order" FROM %s WHERE %s IS NOT DISTINCT FROM $1::int AND id <> $2 ORDER BY "order", id`,
		table, parentCol), parent, id)
	if err != nil {
		return 0, fmt.Errorf("load siblings: %w", err)
	}
	siblings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Sibling, error) {
		var sib Sibling
		err := row.Scan(&sib.ID, &sib.Order)
		return sib, err
	})
	if err != nil {
		return 0, fmt.Errorf("scan siblings: %w", err)
	}

	order, err := Clamp(newOrder, len(siblings))
	if err != nil {
		return 0, err
	}

	if _, err := q.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET %s = $1, "order" = $2, "updatedAt" = now() WHERE id = $3`,
		table, parentCol), parent, order, id); err != nil {
		return 0, fmt.Errorf("move item %d: %w", id, err)
	}

	for _, c := range Plan(siblings, order) {
		if _, err := q.Exec(ctx, fmt.Sprintf(`UPDATE %s SET "order" = $1 WHERE id = $2`, table),
			c.Order, c.ID); err != nil {
			return 0, fmt.Errorf("reorder sibling %d: %w", c.ID, err)
		}
	}
	return order, nil
}
