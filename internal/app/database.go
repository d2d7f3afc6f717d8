package app

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/continental-cup/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const maxTracedQueryLength = 512

var (
	queryWhitespace = regexp.MustCompile(`\s+`)
	// A saved tournament inserts hundreds of fixture rows in one statement.
	repeatedValueTuples = regexp.MustCompile(`(\(\$\d+(?:, \$\d+)*\))(?:, \(\$\d+(?:, \$\d+)*\))+`)
)

// DatabaseURL is the connection string handed to the postgres driver and the migrator.
func DatabaseURL(cfg config.Config) string {
	raw := strings.TrimSpace(cfg.DBURL)
	if !cfg.DBDisablePreparedBinary {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", DatabaseURL(cfg),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(databaseName(cfg.DBURL)),
		otelsql.WithQueryFormatter(traceQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// databaseName accepts both URL and key=value connection strings.
func databaseName(raw string) string {
	raw = strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		return strings.TrimPrefix(parsed.Path, "/")
	}
	for _, token := range strings.Fields(raw) {
		if name, ok := strings.CutPrefix(token, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// traceQuery flattens whitespace and folds multi-row VALUES lists so span names stay short.
func traceQuery(query string) string {
	query = strings.TrimSpace(queryWhitespace.ReplaceAllString(query, " "))
	query = repeatedValueTuples.ReplaceAllStringFunc(query, func(values string) string {
		first := repeatedValueTuples.FindStringSubmatch(values)[1]
		rows := strings.Count(values, "(")
		return fmt.Sprintf("%s, ... (%d rows)", first, rows)
	})
	if len(query) <= maxTracedQueryLength {
		return query
	}
	return query[:maxTracedQueryLength] + "..."
}
