package database

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// FieldType controls how query string values are converted before they are
// bound as SQL arguments.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldFloat
	FieldBool
	FieldTime
)

// Field maps an API field name to its SQL column.
type Field struct {
	Column string
	Type   FieldType
	// Filterable fields may appear as query parameters.
	Filterable bool
	// Sortable fields may appear in sort=.
	Sortable bool
}

// Schema describes the list surface of one resource.
type Schema struct {
	Fields map[string]Field
	// Scope is a predicate always ANDed into the WHERE clause, e.g. hiding
	// secret tours. Clients cannot remove it.
	Scope string
	// DefaultSort is used when no sort= is given.
	DefaultSort string
}

// Operators accepted inside brackets, e.g. price[lt]=500.
var operators = map[string]string{
	"eq":  "=",
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

var bracketParam = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[(eq|gte|gt|lte|lt)\]$`)

var reservedParams = map[string]bool{
	constants.QueryParamPage:   true,
	constants.QueryParamLimit:  true,
	constants.QueryParamSort:   true,
	constants.QueryParamFields: true,
}

// Filter is one predicate on a column. Several values mean IN.
type Filter struct {
	Field  string
	Column string
	Op     string
	Values []interface{}
}

// SortField is one ORDER BY term.
type SortField struct {
	Column string
	Desc   bool
}

// ListQuery is the parsed form of a list request's query string.
type ListQuery struct {
	Filters []Filter
	Sort    []SortField
	// Fields is the requested projection in API names; empty means every field.
	Fields []string
	Page   int
	Limit  int
	// PageExplicit is set when the client asked for a page, which makes an
	// out-of-range page a 404 instead of an empty list.
	PageExplicit bool

	schema *Schema
}

// ParseListQuery converts query string values into a ListQuery for schema.
func ParseListQuery(values url.Values, schema *Schema) (*ListQuery, error) {
	q := &ListQuery{
		Page:   constants.DefaultPage,
		Limit:  constants.DefaultPageSize,
		schema: schema,
	}

	if raw := values.Get(constants.QueryParamPage); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return nil, utils.NewValidationError(constants.QueryParamPage, "Page must be a positive integer")
		}
		q.Page = page
		q.PageExplicit = true
	}

	if raw := values.Get(constants.QueryParamLimit); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return nil, utils.NewValidationError(constants.QueryParamLimit, "Limit must be a positive integer")
		}
		if limit > constants.MaxPageSize {
			limit = constants.MaxPageSize
		}
		q.Limit = limit
	}

	sortSpec := values.Get(constants.QueryParamSort)
	if sortSpec == "" {
		sortSpec = schema.DefaultSort
	}
	if err := q.parseSort(sortSpec); err != nil {
		return nil, err
	}

	if raw := values.Get(constants.QueryParamFields); raw != "" {
		for _, name := range splitList(raw) {
			if _, ok := schema.Fields[name]; !ok {
				return nil, utils.NewValidationError(constants.QueryParamFields, fmt.Sprintf(constants.MsgInvalidQueryField, name))
			}
			q.Fields = append(q.Fields, name)
		}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reservedParams[key] {
			continue
		}

		name, op := key, "eq"
		if m := bracketParam.FindStringSubmatch(key); m != nil {
			name, op = m[1], m[2]
		}

		field, ok := schema.Fields[name]
		if !ok || !field.Filterable {
			return nil, utils.NewBadRequestError(fmt.Sprintf(constants.MsgInvalidQueryField, key))
		}

		if err := q.addFilter(name, field, op, values[key]); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// AddFilter adds an equality filter that the caller controls, such as the
// tour id of a nested route.
func (q *ListQuery) AddFilter(name string, value interface{}) error {
	field, ok := q.schema.Fields[name]
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	q.Filters = append(q.Filters, Filter{
		Field:  name,
		Column: field.Column,
		Op:     "=",
		Values: []interface{}{value},
	})
	return nil
}

func (q *ListQuery) addFilter(name string, field Field, op string, raw []string) error {
	values := make([]interface{}, 0, len(raw))
	for _, r := range raw {
		for _, part := range splitList(r) {
			v, err := convertValue(field.Type, part)
			if err != nil {
				return utils.NewValidationError(name, fmt.Sprintf("Invalid %s: %s", name, part))
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	sqlOp := operators[op]
	if sqlOp != "=" {
		// Ranges use the last value; repetition only makes sense for equality.
		values = values[len(values)-1:]
	}

	q.Filters = append(q.Filters, Filter{
		Field:  name,
		Column: field.Column,
		Op:     sqlOp,
		Values: values,
	})
	return nil
}

func (q *ListQuery) parseSort(spec string) error {
	for _, term := range splitList(spec) {
		desc := strings.HasPrefix(term, "-")
		name := strings.TrimPrefix(term, "-")

		field, ok := q.schema.Fields[name]
		if !ok || !field.Sortable {
			return utils.NewValidationError(constants.QueryParamSort, fmt.Sprintf(constants.MsgInvalidQueryField, name))
		}
		q.Sort = append(q.Sort, SortField{Column: field.Column, Desc: desc})
	}
	return nil
}

// Where renders the scope and filters as a WHERE clause whose placeholders
// start at $startArg. An empty string means no predicate.
func (q *ListQuery) Where(startArg int) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if q.schema.Scope != "" {
		conds = append(conds, q.schema.Scope)
	}

	n := startArg
	for _, f := range q.Filters {
		if len(f.Values) == 1 {
			conds = append(conds, fmt.Sprintf("%s %s $%d", f.Column, f.Op, n))
			args = append(args, f.Values[0])
			n++
			continue
		}

		placeholders := make([]string, len(f.Values))
		for i, v := range f.Values {
			placeholders[i] = fmt.Sprintf("$%d", n)
			args = append(args, v)
			n++
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", f.Column, strings.Join(placeholders, ", ")))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// OrderBy renders the ORDER BY clause. tieBreaker keeps pagination stable.
func (q *ListQuery) OrderBy(tieBreaker string) string {
	terms := make([]string, 0, len(q.Sort)+1)
	for _, s := range q.Sort {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		terms = append(terms, fmt.Sprintf("%s %s", s.Column, dir))
	}
	if tieBreaker != "" {
		terms = append(terms, tieBreaker+" ASC")
	}
	if len(terms) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(terms, ", ")
}

// Offset returns the number of rows skipped before the current page.
func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// CheckPage returns a 404 when an explicitly requested page starts past the
// end of the result set.
func (q *ListQuery) CheckPage(total int) error {
	if q.PageExplicit && q.Offset() > 0 && q.Offset() >= total {
		return utils.NewNotFoundError(constants.MsgPageNotExist)
	}
	return nil
}

func convertValue(t FieldType, raw string) (interface{}, error) {
	switch t {
	case FieldInt:
		return strconv.ParseInt(raw, 10, 64)
	case FieldFloat:
		return strconv.ParseFloat(raw, 64)
	case FieldBool:
		return strconv.ParseBool(raw)
	case FieldTime:
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts, nil
		}
		return time.Parse("2006-01-02", raw)
	default:
		return raw, nil
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
