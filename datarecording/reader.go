package datarecording

import (
	"context"
	"database/sql"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnmappedTable is returned when querying a table that was not
	// mapped.
	ErrUnmappedTable = errors.New("datarecording: table not mapped")

	// ErrNoRecording is returned when opening a file that does not exist.
	ErrNoRecording = errors.New("datarecording: no such recording")
)

// QueryParams narrows a query.
type QueryParams struct {
	// Where holds the condition without the "WHERE" keyword, for example
	// "Tick > ? AND Board = ?".
	Where string
	Args  []any

	// Limit caps the number of returned entries. Zero returns all.
	Limit  int
	Offset int

	// OrderBy holds the ordering without the "ORDER BY" keywords.
	OrderBy string
}

// DataReader reads tables written by a DataRecorder.
type DataReader interface {
	// MapTable binds a table to the struct type of its entries. Only mapped
	// tables can be queried.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the mapped tables, sorted.
	ListTables() []string

	// StoredTables returns the tables present in the file, sorted.
	StoredTables(ctx context.Context) ([]string, error)

	// Query returns pointers to the matching entries and the number of
	// matches before Limit and Offset apply.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

type dbReader struct {
	db      *sql.DB
	entries map[string]reflect.Type
}

// Open opens a recording file for reading.
func Open(filename string) (DataReader, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, errors.Wrapf(ErrNoRecording, "%s", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a DataReader on an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &dbReader{
		db:      db,
		entries: make(map[string]reflect.Type),
	}
}

func (r *dbReader) MapTable(tableName string, sampleEntry any) {
	r.entries[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *dbReader) ListTables() []string {
	tables := make([]string, 0, len(r.entries))
	for name := range r.entries {
		tables = append(tables, name)
	}

	sort.Strings(tables)

	return tables
}

func (r *dbReader) StoredTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (r *dbReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	entryType, ok := r.entries[tableName]
	if !ok {
		return nil, 0, errors.Wrapf(ErrUnmappedTable, "%s", tableName)
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+whereClause(params),
		params.Args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "counting %s", tableName)
	}

	rows, err := r.db.QueryContext(ctx, selectQuery(tableName, params),
		params.Args...)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "querying %s", tableName)
	}
	defer rows.Close()

	results, err := scanEntries(rows, entryType)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "scanning %s", tableName)
	}

	return results, total, nil
}

func whereClause(params QueryParams) string {
	if params.Where == "" {
		return ""
	}

	return " WHERE " + params.Where
}

func selectQuery(tableName string, params QueryParams) string {
	var q strings.Builder

	q.WriteString("SELECT * FROM ")
	q.WriteString(tableName)
	q.WriteString(whereClause(params))

	if params.OrderBy != "" {
		q.WriteString(" ORDER BY " + params.OrderBy)
	}

	// SQLite only accepts OFFSET after LIMIT; -1 means no limit.
	switch {
	case params.Limit > 0:
		q.WriteString(" LIMIT " + strconv.Itoa(params.Limit))
	case params.Offset > 0:
		q.WriteString(" LIMIT -1")
	}

	if params.Offset > 0 {
		q.WriteString(" OFFSET " + strconv.Itoa(params.Offset))
	}

	return q.String()
}

// scanEntries fills one entry per row. Columns without a matching field are
// read and dropped.
func scanEntries(rows *sql.Rows, entryType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldOf := make([]int, len(columns))
	for i, col := range columns {
		fieldOf[i] = -1
		if f, ok := entryType.FieldByName(col); ok && len(f.Index) == 1 {
			fieldOf[i] = f.Index[0]
		}
	}

	var results []any
	for rows.Next() {
		entry := reflect.New(entryType)
		targets := make([]any, len(columns))

		for i, field := range fieldOf {
			if field < 0 {
				targets[i] = new(any)
				continue
			}

			targets[i] = entry.Elem().Field(field).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, entry.Interface())
	}

	return results, rows.Err()
}

func (r *dbReader) Close() error {
	return r.db.Close()
}
