// Package sqltext prepares SQL fragments and statements for submission to
// a remote command-line client.
package sqltext

import (
	"regexp"
	"strconv"
	"strings"
)

// InList renders values as a single-quoted, comma-joined fragment for use
// inside an IN (...) predicate. An empty slice yields an empty string.
// Values are not escaped; they are expected to come from typed data, not
// free text.
func InList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\'')
		sb.WriteString(v)
		sb.WriteByte('\'')
	}
	return sb.String()
}

// InListInts is InList for integer values.
func InListInts(values []int) string {
	if len(values) == 0 {
		return ""
	}
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = strconv.Itoa(v)
	}
	return InList(strs)
}

var (
	spaceRuns  = regexp.MustCompile(` +`)
	blankLines = regexp.MustCompile(`\n\s*\n`)
	newlineRun = regexp.MustCompile(`\n+`)
	leadSpace  = regexp.MustCompile(`(?m)^ +`)
	commaPad   = regexp.MustCompile(`[^\S\n]*,[^\S\n]*`)
	trailSemi  = regexp.MustCompile(`\s*;\s*$`)
)

// Clean normalizes a statement before it is sent to the remote client:
// whitespace runs collapse, blank lines and control characters drop, and
// any trailing semicolon is removed so the dispatcher can terminate the
// statement itself.
func Clean(sql string) string {
	sql = strings.NewReplacer("\t", "", "\r", "", "\f", "", "\v", "").Replace(sql)
	sql = spaceRuns.ReplaceAllString(sql, " ")
	sql = blankLines.ReplaceAllString(sql, "\n")
	sql = newlineRun.ReplaceAllString(sql, "\n")
	sql = leadSpace.ReplaceAllString(sql, "")
	sql = commaPad.ReplaceAllString(sql, ",")
	sql = trailSemi.ReplaceAllString(sql, "")
	return strings.TrimSpace(sql)
}
