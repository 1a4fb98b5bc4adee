package gateway

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Sort orders a list query. The zero value means unsorted.
type Sort struct {
	Field string
	Desc  bool
}

// IsZero reports whether no sort field is set.
func (s Sort) IsZero() bool { return s.Field == "" }

func (s Sort) String() string {
	if s.IsZero() {
		return ""
	}
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return s.Field + "," + dir
}

// ParseSort parses "field" or "field,asc|desc".
func ParseSort(s string) (Sort, error) {
	field, dir, _ := strings.Cut(strings.TrimSpace(s), ",")
	if field == "" {
		return Sort{}, fmt.Errorf("sort %q: field is empty", s)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return Sort{Field: field}, nil
	case "desc":
		return Sort{Field: field, Desc: true}, nil
	}
	return Sort{}, fmt.Errorf("sort %q: direction must be asc or desc", s)
}

// Filter is a criteria operator understood by the server.
type Filter string

// Supported filters.
const (
	FilterEquals      Filter = "equals"
	FilterContains    Filter = "contains"
	FilterIn          Filter = "in"
	FilterSpecified   Filter = "specified"
	FilterGreaterThan Filter = "greaterThan"
	FilterLessThan    Filter = "lessThan"
)

var filters = map[string]Filter{
	"equals":      FilterEquals,
	"contains":    FilterContains,
	"in":          FilterIn,
	"specified":   FilterSpecified,
	"greaterthan": FilterGreaterThan,
	"lessthan":    FilterLessThan,
}

// Criterion restricts a list or count query to entities whose Field
// matches Value under Filter.
type Criterion struct {
	Field  string
	Filter Filter
	Value  string
}

// Key returns the query parameter name, e.g. "title.contains".
func (c Criterion) Key() string {
	return c.Field + "." + string(c.Filter)
}

// ParseCriterion parses "field.filter=value".
func ParseCriterion(s string) (Criterion, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return Criterion{}, fmt.Errorf("filter %q: expected field.filter=value", s)
	}
	field, name, ok := strings.Cut(key, ".")
	if !ok || field == "" {
		return Criterion{}, fmt.Errorf("filter %q: expected field.filter=value", s)
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return Criterion{}, fmt.Errorf("filter %q: unknown filter %q", s, name)
	}
	return Criterion{Field: field, Filter: f, Value: value}, nil
}

// ListOptions selects a page of entities. Page and Size are sent only
// when Sort is set.
type ListOptions struct {
	Page     int
	Size     int
	Sort     Sort
	Criteria []Criterion
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if !o.Sort.IsZero() {
		v.Set("page", strconv.Itoa(o.Page))
		v.Set("size", strconv.Itoa(o.Size))
		v.Set("sort", o.Sort.String())
	}
	addCriteria(v, o.Criteria)
	return v
}

func addCriteria(v url.Values, criteria []Criterion) {
	for _, c := range criteria {
		v.Add(c.Key(), c.Value)
	}
}
