package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
)

// Record is one row as column name to value.
type Record map[string]any

// Where selects rows by column equality.
type Where map[string]any

// Records is the generic record store over any table.
type Records struct {
	db DBExecutor
}

func NewRecords(db DBExecutor) *Records {
	return &Records{db: db}
}

// FindOne returns the first row of table matching where.
func (r *Records) FindOne(ctx context.Context, table string, where Where) (Record, error) {
	query, args, err := sq.Select("*").From(table).Where(sq.Eq(where)).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", table, ErrNotFound)
	}
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	rec := make(Record, len(cols))
	for i, c := range cols {
		if b, ok := vals[i].([]byte); ok {
			rec[c] = string(b)
			continue
		}
		rec[c] = vals[i]
	}
	return rec, rows.Err()
}

// Exists reports whether any row of table matches where.
func (r *Records) Exists(ctx context.Context, table string, where Where) (bool, error) {
	query, args, err := sq.Select("1").From(table).Where(sq.Eq(where)).Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", table, err)
	}
	return true, nil
}

// InsertOne inserts rec and returns its row id.
func (r *Records) InsertOne(ctx context.Context, table string, rec Record) (int64, error) {
	cols := sortedKeys(rec)
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = rec[c]
	}
	query, args, err := sq.Insert(table).Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return res.LastInsertId()
}

// UpdateFields sets fields on every row matching where and returns how many
// rows changed.
func (r *Records) UpdateFields(ctx context.Context, table string, where Where, fields Record) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	b := sq.Update(table).Where(sq.Eq(where))
	for _, c := range sortedKeys(fields) {
		b = b.Set(c, fields[c])
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return res.RowsAffected()
}

// DeleteOne deletes the first row matching where and reports whether one
// was deleted.
func (r *Records) DeleteOne(ctx context.Context, table string, where Where) (bool, error) {
	sub, subArgs, err := sq.Select("rowid").From(table).Where(sq.Eq(where)).Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	query, args, err := sq.Delete(table).Where(sq.Expr("rowid = ("+sub+")", subArgs...)).ToSql()
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
