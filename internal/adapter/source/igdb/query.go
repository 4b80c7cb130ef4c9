package igdb

import (
	"fmt"
	"strings"
)

// Query builds an Apicalypse request body:
//
//	fields a,b,c; search "term"; where cond; sort field desc; limit n;
type Query struct {
	fields []string
	search string
	where  []string
	sort   string
	limit  int
}

// NewQuery starts a query projecting the given fields
func NewQuery(fields ...string) *Query {
	return &Query{fields: fields}
}

// Search adds a full-text search directive
func (q *Query) Search(term string) *Query {
	q.search = term
	return q
}

// Where adds a filter; multiple filters are joined with &
func (q *Query) Where(cond string) *Query {
	q.where = append(q.where, cond)
	return q
}

// SortDesc orders results by field, descending
func (q *Query) SortDesc(field string) *Query {
	q.sort = field + " desc"
	return q
}

// Limit caps the number of returned rows
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// String renders the query body
func (q *Query) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fields %s;", strings.Join(q.fields, ","))
	if q.search != "" {
		fmt.Fprintf(&b, " search \"%s\";", escape(q.search))
	}
	if len(q.where) > 0 {
		fmt.Fprintf(&b, " where %s;", strings.Join(q.where, " & "))
	}
	if q.sort != "" {
		fmt.Fprintf(&b, " sort %s;", q.sort)
	}
	if q.limit > 0 {
		fmt.Fprintf(&b, " limit %d;", q.limit)
	}
	return b.String()
}

// escape makes term safe inside a quoted Apicalypse string
func escape(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	return strings.ReplaceAll(term, `"`, `\"`)
}
