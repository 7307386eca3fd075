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

import "time"

// Accessor is the property-accessor abstraction spec.md §3 requires: the
// core never reaches into a host entity's internal graph directly, it
// reads through this interface, supplied by the host alongside the
// repository/persister implementations.
type Accessor interface {
	// ID returns the entity's resource id.
	ID(entity any) string
	// Attribute returns the raw value at propertyPath, or nil if absent.
	Attribute(entity any, propertyPath string) any
	// ToOneID returns the linked id for a to-one relationship, or "" if null.
	ToOneID(entity any, relationshipName string) (id string, isNull bool)
	// ToManyIDs returns the linked ids for a to-many relationship.
	ToManyIDs(entity any, relationshipName string) []string
	// UpdatedAt returns the entity's modification timestamp, if the
	// metadata exposes one.
	UpdatedAt(entity any) (time.Time, bool)
}
