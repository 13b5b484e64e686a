// Package repository implements the PostgreSQL data access layer.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// pageQuery renders the WHERE, ORDER BY and LIMIT/OFFSET parts of a list
// query and returns the count query alongside.
func pageQuery(selectPart, fromPart string, q *database.ListQuery, tieBreaker string) (listSQL, countSQL string, listArgs, countArgs []interface{}) {
	where, args := q.Where(1)

	countSQL = fmt.Sprintf("SELECT COUNT(*) %s %s", fromPart, where)
	countArgs = args

	n := len(args) + 1
	listSQL = fmt.Sprintf("%s %s %s %s LIMIT $%d OFFSET $%d",
		selectPart, fromPart, where, q.OrderBy(tieBreaker), n, n+1)
	listArgs = append(append([]interface{}{}, args...), q.Limit, q.Offset())

	return listSQL, countSQL, listArgs, countArgs
}

// count runs a COUNT(*) query.
func count(ctx context.Context, db database.Querier, query string, args []interface{}) (int, error) {
	start := time.Now()
	var total int
	err := db.QueryRowContext(ctx, query, args...).Scan(&total)
	utils.LogDBQuery(query, args, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return total, nil
}
