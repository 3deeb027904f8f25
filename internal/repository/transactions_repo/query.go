package transactions_repo

import (
	"fmt"
	"strings"

	"panel/internal/domain"
)

const selectColumns = `id, seq, account_id, order_id, type, status, is_valid, amount, currency, created_at, updated_at`

// orderableColumns maps accepted order_by values to columns. order_by goes
// into the SQL text, so only these names are ever interpolated.
var orderableColumns = map[string]string{
	"id":         "id",
	"seq":        "seq",
	"order_id":   "order_id",
	"type":       "type",
	"status":     "status",
	"amount":     "amount",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func IsOrderableColumn(name string) bool {
	_, ok := orderableColumns[name]
	return ok
}

// buildFindQuery renders filter into a SELECT statement and its arguments.
// account_id is always part of the WHERE clause.
func buildFindQuery(filter domain.TransactionFilter, d Defaults) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	add("account_id = $%d", filter.AccountID)
	if filter.ID != nil {
		add("id = $%d", *filter.ID)
	}
	if filter.OrderID != nil {
		add("order_id = $%d", *filter.OrderID)
	}
	if filter.Type != nil {
		add("type = $%d", *filter.Type)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Before != nil {
		add("created_at < $%d", *filter.Before)
	}
	if filter.After != nil {
		add("created_at > $%d", *filter.After)
	}

	onlyValid := d.OnlyValid
	if filter.OnlyValid != nil {
		onlyValid = *filter.OnlyValid
	}
	if onlyValid {
		conds = append(conds, "is_valid = TRUE")
	}

	orderBy := d.OrderBy
	if filter.OrderBy != nil {
		orderBy = *filter.OrderBy
	}
	column, ok := orderableColumns[orderBy]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedOrderBy, orderBy)
	}

	direction := "DESC"
	order := d.Order
	if filter.Order != nil {
		order = *filter.Order
	}
	if order == domain.SortAsc {
		direction = "ASC"
	}

	limit := d.Limit
	if filter.Limit != nil && *filter.Limit > 0 {
		limit = *filter.Limit
	}
	if d.MaxLimit > 0 && limit > d.MaxLimit {
		limit = d.MaxLimit
	}
	offset := 0
	if filter.Offset != nil && *filter.Offset > 0 {
		offset = *filter.Offset
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectColumns)
	b.WriteString(" FROM transactions WHERE ")
	b.WriteString(strings.Join(conds, " AND "))
	// seq breaks ties so pages are stable.
	fmt.Fprintf(&b, " ORDER BY %s %s, seq %s", column, direction, direction)
	args = append(args, limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))
	args = append(args, offset)
	fmt.Fprintf(&b, " OFFSET $%d", len(args))

	return b.String(), args, nil
}
