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

package document

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"jsonapi.dev/engine/criteria"
	"jsonapi.dev/engine/jsonapi"
	"jsonapi.dev/engine/registry"
)

// LinkageMode controls when a relationship object carries a "data" member
// (spec.md §4.5).
type LinkageMode string

const (
	LinkageAlways      LinkageMode = "always"
	LinkageWhenIncluded LinkageMode = "when_included"
	LinkageNever       LinkageMode = "never"
)

// Slice is a page of a collection result, as returned by
// ResourceRepository.findCollection (spec.md §3).
type Slice struct {
	Items      []any
	PageNumber int
	PageSize   int
	TotalItems int
}

// Config controls document assembly policy.
type Config struct {
	RoutePrefix string // default "/api"
	Linkage     LinkageMode
}

// Builder assembles response documents from opaque host entities.
type Builder struct {
	cfg Config
	reg *registry.Registry
}

// NewBuilder constructs a Builder bound to reg under cfg.
func NewBuilder(reg *registry.Registry, cfg Config) *Builder {
	if cfg.RoutePrefix == "" {
		cfg.RoutePrefix = "/api"
	}
	if cfg.Linkage == "" {
		cfg.Linkage = LinkageWhenIncluded
	}
	return &Builder{cfg: cfg, reg: reg}
}

// BuildResourceObject serializes one entity into a wire resource object,
// applying sparse fieldsets from c and the configured linkage policy.
func (b *Builder) BuildResourceObject(entity any, meta registry.ResourceMetadata, acc Accessor, c *criteria.Criteria, op registry.SerializationGroup) *jsonapi.ResourceObject {
	id := acc.ID(entity)
	wanted := fieldFilter(c, meta.Type)

	attrs := make(map[string]any)
	for _, name := range meta.AttributeOrder {
		attr := meta.Attributes[name]
		if !attr.InGroup(op) {
			continue
		}
		if wanted != nil && !wanted[name] {
			continue
		}
		attrs[name] = acc.Attribute(entity, attr.PropertyPath)
	}
	if meta.ExposeID {
		attrs["id"] = id
	}

	rels := make(map[string]*jsonapi.RelationshipObject)
	for _, name := range meta.RelationshipOrder {
		if wanted != nil && !wanted[name] {
			continue
		}
		rel := meta.Relationships[name]
		selfLink := fmt.Sprintf("%s/%s/%s/relationships/%s", b.cfg.RoutePrefix, meta.Type, id, name)
		relatedLink := fmt.Sprintf("%s/%s/%s/%s", b.cfg.RoutePrefix, meta.Type, id, name)

		ro := &jsonapi.RelationshipObject{
			Links: &jsonapi.LinksObject{Self: selfLink, Related: relatedLink},
		}

		includeData := b.cfg.Linkage == LinkageAlways ||
			(b.cfg.Linkage == LinkageWhenIncluded && c != nil && c.IncludesRelationship(name))

		if includeData {
			if rel.ToMany {
				ids := acc.ToManyIDs(entity, name)
				idents := make([]jsonapi.ResourceIdentifier, 0, len(ids))
				for _, id := range ids {
					idents = append(idents, jsonapi.ResourceIdentifier{Type: rel.TargetType, ID: id})
				}
				ro.Data = jsonapi.LinkageOf(idents)
			} else {
				relID, isNull := acc.ToOneID(entity, name)
				if isNull {
					ro.Data = jsonapi.NullLinkage()
				} else {
					ro.Data = jsonapi.LinkageOf(jsonapi.ResourceIdentifier{Type: rel.TargetType, ID: relID})
				}
			}
		}
		rels[name] = ro
	}

	return &jsonapi.ResourceObject{
		Type:          meta.Type,
		ID:            id,
		Attributes:    attrs,
		Relationships: rels,
		Links:         &jsonapi.LinksObject{Self: fmt.Sprintf("%s/%s/%s", b.cfg.RoutePrefix, meta.Type, id)},
	}
}

// BuildSingleDocument wraps one primary resource plus its expanded
// included set into a complete document.
func (b *Builder) BuildSingleDocument(primary *jsonapi.ResourceObject, included []*jsonapi.ResourceObject) *jsonapi.Document {
	return &jsonapi.Document{
		JSONAPI:  jsonapi.JSONAPIObject{Version: jsonapi.Version},
		Data:     jsonapi.LinkageOf(primary),
		Included: included,
	}
}

// BuildCollectionDocument wraps a page of resources into a complete
// document with pagination links preserving the original query
// (spec.md §4.5).
func (b *Builder) BuildCollectionDocument(primaries []*jsonapi.ResourceObject, included []*jsonapi.ResourceObject, slice Slice, rootURL *url.URL) *jsonapi.Document {
	return &jsonapi.Document{
		JSONAPI:  jsonapi.JSONAPIObject{Version: jsonapi.Version},
		Data:     jsonapi.LinkageOf(primaries),
		Included: included,
		Links:    paginationLinks(slice, rootURL),
	}
}

func paginationLinks(slice Slice, rootURL *url.URL) *jsonapi.LinksObject {
	if rootURL == nil || slice.PageSize <= 0 {
		return nil
	}
	lastPage := int(math.Ceil(float64(slice.TotalItems) / float64(slice.PageSize)))
	if lastPage < 1 {
		lastPage = 1
	}

	links := &jsonapi.LinksObject{
		Self:  withPage(rootURL, slice.PageNumber),
		First: withPage(rootURL, 1),
		Last:  withPage(rootURL, lastPage),
	}
	if slice.PageNumber > 1 {
		links.Prev = withPage(rootURL, slice.PageNumber-1)
	}
	if slice.PageNumber < lastPage {
		links.Next = withPage(rootURL, slice.PageNumber+1)
	}
	return links
}

func withPage(rootURL *url.URL, page int) string {
	u := *rootURL
	q := u.Query()
	q.Set("page[number]", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func fieldFilter(c *criteria.Criteria, typ string) map[string]bool {
	if c == nil || !c.HasFields(typ) {
		return nil
	}
	names := c.Fields[typ]
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// MaxLastModified returns the latest UpdatedAt across entities, for
// collection Last-Modified computation (spec.md §4.7).
func MaxLastModified(entities []any, acc Accessor) (time.Time, bool) {
	var max time.Time
	found := false
	for _, e := range entities {
		if t, ok := acc.UpdatedAt(e); ok {
			if !found || t.After(max) {
				max = t
				found = true
			}
		}
	}
	return max, found
}
