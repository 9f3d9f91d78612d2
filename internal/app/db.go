package app

import (
	"net/url"
	"strings"
)

const (
	preparedBinaryParam  = "disable_prepared_binary_result"
	maxTracedQueryLength = 512
)

// NormalizeDBURL turns on disable_prepared_binary_result unless the
// connection string already sets it. Both URL and keyword/value forms are
// accepted. Needed behind pgbouncer in transaction mode.
func NormalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	if isURLDSN(raw) {
		parsed, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return raw
		}
		query := parsed.Query()
		if query.Get(preparedBinaryParam) == "" {
			query.Set(preparedBinaryParam, "yes")
			parsed.RawQuery = query.Encode()
		}
		return parsed.String()
	}

	if _, ok := keywordDSNValue(raw, preparedBinaryParam); ok {
		return raw
	}
	return strings.TrimSpace(raw) + " " + preparedBinaryParam + "=yes"
}

// dbName reports the database a connection string points at, or "".
func dbName(raw string) string {
	if isURLDSN(raw) {
		parsed, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return ""
		}
		return strings.TrimPrefix(parsed.Path, "/")
	}
	name, _ := keywordDSNValue(raw, "dbname")
	return name
}

func isURLDSN(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://")
}

func keywordDSNValue(raw, key string) (string, bool) {
	for _, token := range strings.Fields(raw) {
		k, v, ok := strings.Cut(token, "=")
		if ok && k == key {
			return strings.Trim(v, `"'`), true
		}
	}
	return "", false
}

// formatDBQueryForTrace collapses the multi-line statements of the postgres
// repositories into one line and caps the span attribute size.
func formatDBQueryForTrace(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
