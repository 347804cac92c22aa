package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tsvfield/tsvfield/tsvfield"
)

// Query helpers for reading the derived column back. These consume the
// vectors the triggers maintain; they are not part of the migration path.

// TSQueryExpr builds the tsquery expression for a user query against the
// given configuration, with the query bound to placeholder. Phrase search
// when the query contains whitespace, plain search otherwise.
func TSQueryExpr(config, placeholder, query string) string {
	fn := "plainto_tsquery"
	if strings.IndexFunc(query, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) >= 0 {
		fn = "phraseto_tsquery"
	}
	return fmt.Sprintf("%s('%s', %s)", fn, config, placeholder)
}

// HeadlineExpr builds a ts_headline expression over a document column.
// config and options are optional.
func HeadlineExpr(column, tsquery, config, options string) string {
	args := []string{column, tsquery}
	if config != "" {
		args = append([]string{"'" + config + "'"}, args...)
	}
	if options != "" {
		args = append(args, "'"+strings.ReplaceAll(options, "'", "''")+"'")
	}
	return "ts_headline(" + strings.Join(args, ", ") + ")"
}

// SearchOptions configures Search.
type SearchOptions struct {
	Config   string // text search configuration, default "english"
	Headline string // textual column to render a ts_headline for, optional
	Limit    int    // default 10
}

// SearchResult is one matched row.
type SearchResult struct {
	ID       int64
	Rank     float32
	Headline string
}

// BuildSearchSQL returns the statement and arguments matching query
// against the derived column, ordered by rank.
func (e *Editor) BuildSearchSQL(m tsvfield.Model, column, query string, opts SearchOptions) (string, []any) {
	config := opts.Config
	if config == "" {
		config = "english"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	col := e.QuoteName(column)
	tsq := TSQueryExpr(config, "$1", query)

	headline := "''"
	if opts.Headline != "" {
		headline = HeadlineExpr("COALESCE("+e.QuoteName(opts.Headline)+", '')", tsq, config, "")
	}

	stmt := fmt.Sprintf(
		"SELECT id, ts_rank(%s, %s) AS rank, %s AS headline FROM %s WHERE %s @@ %s ORDER BY rank DESC, id LIMIT %d",
		col, tsq, headline, e.QuoteName(m.Table), col, tsq, limit,
	)
	return stmt, []any{query}
}

// Search runs a ranked query against the derived column.
func (e *Editor) Search(ctx context.Context, db *sql.DB, m tsvfield.Model, column, query string, opts SearchOptions) ([]SearchResult, error) {
	stmt, args := e.BuildSearchSQL(m, column, query, opts)
	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, tsvfield.Wrap(tsvfield.ErrSQL, "search query", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Rank, &r.Headline); err != nil {
			return nil, tsvfield.Wrap(tsvfield.ErrSQL, "scan search result", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, tsvfield.Wrap(tsvfield.ErrSQL, "iterate search results", err)
	}
	return out, nil
}
