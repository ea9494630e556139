package api

import (
	"context"
	"database/sql"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// DBHandler exposes the DuckDB panel store to ad-hoc SQL.
type DBHandler struct {
	db *sql.DB
}

// NewDBHandler creates a new database handler. A nil db answers 503.
func NewDBHandler(db *sql.DB) *DBHandler {
	return &DBHandler{db: db}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("db"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("db"))
}

type TablesBody struct {
	Tables []string `json:"tables" doc:"List of table names"`
}

// ListTables returns all DuckDB tables.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*struct{ Body TablesBody }, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	rows, err := h.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			tables = append(tables, name)
		}
	}
	return &struct{ Body TablesBody }{Body: TablesBody{Tables: tables}}, nil
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"Read-only SQL query" example:"SELECT segment_index, sum(yearly_energy_dc_kwh) FROM solar_panels GROUP BY 1"`
		Limit int    `json:"limit,omitempty" minimum:"0" maximum:"10000" default:"1000" doc:"Maximum rows returned"`
	}
}

type QueryBody struct {
	Columns   []string         `json:"columns" doc:"Column names"`
	Rows      []map[string]any `json:"rows" doc:"Query results"`
	Count     int              `json:"count" doc:"Number of rows returned"`
	Truncated bool             `json:"truncated" doc:"Whether more rows were available than the limit"`
}

// readOnlyPrefixes are the statements /query accepts.
var readOnlyPrefixes = []string{"select", "with", "show", "describe", "summarize", "explain", "from"}

// Query executes a read-only SQL query against DuckDB.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*struct{ Body QueryBody }, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	if !readOnly(input.Body.Query) {
		return nil, huma.Error400BadRequest("Only read-only statements are allowed")
	}
	limit := input.Body.Limit
	if limit <= 0 {
		limit = 1000
	}
	out, err := runRolledBack(ctx, h.db, input.Body.Query, limit)
	if err != nil {
		return nil, err
	}
	return &struct{ Body QueryBody }{Body: out}, nil
}

// runRolledBack runs q inside a transaction that is always rolled back. The
// keyword check cannot see every write DuckDB allows inside a statement, so
// nothing a query does is ever committed.
func runRolledBack(ctx context.Context, db *sql.DB, q string, limit int) (QueryBody, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return QueryBody{}, huma.Error500InternalServerError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return QueryBody{}, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return QueryBody{}, huma.Error500InternalServerError("Failed to get columns", err)
	}

	out := QueryBody{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		if len(out.Rows) == limit {
			out.Truncated = true
			break
		}
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			continue
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			// BLOB and VARCHAR can come back as bytes.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return QueryBody{}, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	out.Count = len(out.Rows)
	return out, nil
}

// readOnly reports whether q is a single statement starting with a
// read-only keyword. EXPLAIN ANALYZE runs its statement and is refused.
func readOnly(q string) bool {
	q = strings.TrimSpace(strings.ToLower(q))
	q = strings.TrimSuffix(q, ";")
	if strings.Contains(q, ";") {
		return false
	}
	words := strings.Fields(q)
	if len(words) == 0 {
		return false
	}
	if words[0] == "explain" && len(words) > 1 && strings.HasPrefix(words[1], "analy") {
		return false
	}
	for _, p := range readOnlyPrefixes {
		if strings.HasPrefix(q, p) {
			return true
		}
	}
	return false
}
