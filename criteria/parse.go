// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package criteria

import (
	"net/url"
	"strconv"
	"strings"

	"jsonapi.dev/engine/jsonapierr"
	"jsonapi.dev/engine/registry"
)

// Limits are the DoS guards spec.md §4.2 requires the parser to enforce.
type Limits struct {
	MaxIncludeDepth  int
	MaxFieldsPerType int
	MaxSortFields    int
	MaxFilterDepth   int
	DefaultPageSize  int
	MaxPageSize      int
}

// DefaultLimits returns a conservative, commonly-used limit set.
func DefaultLimits() Limits {
	return Limits{
		MaxIncludeDepth:  3,
		MaxFieldsPerType: 20,
		MaxSortFields:    5,
		MaxFilterDepth:   5,
		DefaultPageSize:  20,
		MaxPageSize:      100,
	}
}

// Parse parses a request's raw query string for resource type
// rootType, validating it against reg and limits. All detectable
// violations are returned together in *jsonapierr.Multi — the parser never
// short-circuits on the first error (spec.md §7 aggregation policy).
func Parse(rawQuery string, rootType string, reg *registry.Registry, limits Limits) (*Criteria, *jsonapierr.Multi) {
	values, _ := url.ParseQuery(rawQuery)
	errs := &jsonapierr.Multi{}

	c := &Criteria{Fields: make(map[string][]string)}

	c.Include = parseInclude(values.Get("include"), rootType, reg, limits, errs)
	parseFields(values, reg, limits, c, errs)
	c.Sort = parseSort(values.Get("sort"), rootType, reg, limits, errs)
	c.Pagination = parsePagination(values, limits, errs)
	c.Filter = parseFilter(values, rootType, reg, limits, errs)

	return c, errs
}

func parseInclude(raw string, rootType string, reg *registry.Registry, limits Limits, errs *jsonapierr.Multi) []*IncludeNode {
	if raw == "" {
		return nil
	}

	roots := map[string]*IncludeNode{}
	var order []string

	for _, path := range strings.Split(raw, ",") {
		segments := strings.Split(path, ".")
		if len(segments) > limits.MaxIncludeDepth {
			errs.Add(jsonapierr.New(jsonapierr.CodeIncludeTooDeep,
				"include path \""+path+"\" exceeds maximum depth").WithParameter("include"))
			continue
		}

		currentType := rootType
		var currentChildren *[]*IncludeNode
		nodesByKey := map[string]*IncludeNode{}
		valid := true

		for depth, seg := range segments {
			meta, ok := reg.GetByType(currentType)
			if !ok {
				valid = false
				break
			}
			rel, ok := meta.Relationship(seg)
			if !ok {
				errs.Add(jsonapierr.New(jsonapierr.CodeInvalidIncludePath,
					"\""+seg+"\" is not a relationship of type \""+currentType+"\"").WithParameter("include"))
				valid = false
				break
			}

			key := strings.Join(segments[:depth+1], ".")
			node, exists := nodesByKey[key]
			if !exists {
				node = &IncludeNode{Relationship: seg}
				nodesByKey[key] = node
				if depth == 0 {
					if existing, ok := roots[seg]; ok {
						node = existing
						nodesByKey[key] = node
					} else {
						roots[seg] = node
						order = append(order, seg)
					}
				} else if currentChildren != nil {
					*currentChildren = append(*currentChildren, node)
				}
			}
			currentChildren = &node.Children
			currentType = rel.TargetType
		}
		_ = valid
	}

	out := make([]*IncludeNode, 0, len(order))
	for _, name := range order {
		out = append(out, roots[name])
	}
	return out
}

func parseFields(values url.Values, reg *registry.Registry, limits Limits, c *Criteria, errs *jsonapierr.Multi) {
	for key, vals := range values {
		if !strings.HasPrefix(key, "fields[") || !strings.HasSuffix(key, "]") {
			continue
		}
		typ := key[len("fields[") : len(key)-1]
		if len(vals) == 0 || vals[0] == "" {
			c.Fields[typ] = []string{}
			continue
		}

		meta, ok := reg.GetByType(typ)
		if !ok {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFieldset,
				"unknown resource type \""+typ+"\" in fields parameter").WithParameter(key))
			continue
		}

		names := strings.Split(vals[0], ",")
		if len(names) > limits.MaxFieldsPerType {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFieldset,
				"too many fields requested for type \""+typ+"\"").WithParameter(key))
			continue
		}

		for _, name := range names {
			_, isAttr := meta.Attribute(name)
			_, isRel := meta.Relationship(name)
			if !isAttr && !isRel {
				errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFieldset,
					"unknown field \""+name+"\" for type \""+typ+"\"").WithParameter(key))
			}
		}
		c.Fields[typ] = names
	}
}

func parseSort(raw string, rootType string, reg *registry.Registry, limits Limits, errs *jsonapierr.Multi) []SortField {
	if raw == "" {
		return nil
	}

	meta, ok := reg.GetByType(rootType)
	if !ok {
		return nil
	}

	names := strings.Split(raw, ",")
	if len(names) > limits.MaxSortFields {
		errs.Add(jsonapierr.New(jsonapierr.CodeInvalidSortField, "too many sort fields requested").WithParameter("sort"))
		return nil
	}

	out := make([]SortField, 0, len(names))
	for _, n := range names {
		desc := strings.HasPrefix(n, "-")
		field := strings.TrimPrefix(n, "-")

		if len(meta.SortableFields) == 0 || !meta.SortableFields[field] {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidSortField,
				"field \""+field+"\" is not sortable for type \""+rootType+"\"").WithParameter("sort"))
			continue
		}
		out = append(out, SortField{Field: field, Descending: desc})
	}
	return out
}

func parsePagination(values url.Values, limits Limits, errs *jsonapierr.Multi) Pagination {
	p := Pagination{Number: 1, Size: limits.DefaultPageSize}

	if raw := values.Get("page[number]"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFilter, "invalid page[number] value").WithParameter("page[number]"))
		} else {
			p.Number = n
		}
	}

	if raw := values.Get("page[size]"); raw != "" {
		s, err := strconv.Atoi(raw)
		if err != nil {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFilter, "invalid page[size] value").WithParameter("page[size]"))
		} else {
			p.Size = clamp(s, 1, limits.MaxPageSize)
		}
	}

	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseFilter(values url.Values, rootType string, reg *registry.Registry, limits Limits, errs *jsonapierr.Multi) []FilterClause {
	meta, ok := reg.GetByType(rootType)
	if !ok {
		return nil
	}

	var out []FilterClause
	depth := 0
	for key, vals := range values {
		if !strings.HasPrefix(key, "filter[") {
			continue
		}
		// filter[FIELD][OP]
		rest := strings.TrimPrefix(key, "filter[")
		parts := strings.Split(strings.TrimSuffix(rest, "]"), "][")
		if len(parts) != 2 {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFilter, "malformed filter key \""+key+"\"").WithParameter(key))
			continue
		}
		field, opRaw := parts[0], parts[1]
		op := FilterOp(opRaw)

		if !allOps[op] {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFilter, "unsupported filter operator \""+opRaw+"\"").WithParameter(key))
			continue
		}

		allowedOps, whitelisted := meta.FilterableFields[field]
		if !whitelisted {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFilter,
				"field \""+field+"\" is not filterable for type \""+rootType+"\"").WithParameter(key))
			continue
		}
		if !containsStr(allowedOps, string(op)) {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFilter,
				"operator \""+opRaw+"\" is not permitted for field \""+field+"\"").WithParameter(key))
			continue
		}

		depth++
		if depth > limits.MaxFilterDepth {
			errs.Add(jsonapierr.New(jsonapierr.CodeInvalidFilter, "filter exceeds maximum depth").WithParameter(key))
			continue
		}

		value := ""
		if len(vals) > 0 {
			value = vals[0]
		}
		out = append(out, FilterClause{Field: field, Op: op, Value: value})
	}
	return out
}

func containsStr(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
