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

// Package hooks runs profile-supplied callbacks at the well-defined
// pipeline phases of spec.md §4.12.
package hooks

// Phase names one of the fixed extension points a profile may hook.
type Phase string

const (
	PhaseParseQuery           Phase = "onParseQuery"
	PhaseBeforeFindCollection Phase = "onBeforeFindCollection"
	PhaseBeforeFindOne        Phase = "onBeforeFindOne"
	PhaseBeforeCreate         Phase = "onBeforeCreate"
	PhaseBeforeUpdate         Phase = "onBeforeUpdate"
	PhaseBeforeDelete         Phase = "onBeforeDelete"
	PhaseResourceRelationships Phase = "onResourceRelationships"
	PhaseTopLevelLinks        Phase = "onTopLevelLinks"
	PhaseTopLevelMeta         Phase = "onTopLevelMeta"
	PhaseBeforeRelationshipRead Phase = "onBeforeRelationshipRead"
)

// Hook is a single profile-supplied callback. It receives an in-out
// argument (typically a pointer to the phase's mutable struct) and may
// return an error to abort the request, per spec.md §4.12: "an exception
// from a hook propagates as the request's outcome."
type Hook func(arg any) error

// Profile is one registered extension: a stable URI plus the phases it
// hooks.
type Profile struct {
	URI   string
	Hooks map[Phase][]Hook
}

// ActivationConfig controls which profiles apply to a given request.
type ActivationConfig struct {
	EnabledByDefault []string
	PerType          map[string][]string
}

// ResolveActive returns the profile URIs active for the given resource
// type and the request's own profile= parameter values, deduplicated in
// first-seen order: enabled-by-default, then per-type, then requested.
// Dispatcher.Run invokes hooks in profile registration order regardless.
func ResolveActive(cfg ActivationConfig, resourceType string, requested []string) []string {
	active := make(map[string]bool)
	var order []string

	add := func(uri string) {
		if !active[uri] {
			active[uri] = true
			order = append(order, uri)
		}
	}

	for _, uri := range cfg.EnabledByDefault {
		add(uri)
	}
	for _, uri := range cfg.PerType[resourceType] {
		add(uri)
	}
	for _, uri := range requested {
		add(uri)
	}
	return order
}

// Dispatcher runs the hooks of every active profile, in profile
// registration order, for a given phase.
type Dispatcher struct {
	profiles map[string]*Profile
	order    []string
}

// NewDispatcher builds a Dispatcher from the registered profiles, in
// registration order.
func NewDispatcher(profiles ...*Profile) *Dispatcher {
	d := &Dispatcher{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		d.profiles[p.URI] = p
		d.order = append(d.order, p.URI)
	}
	return d
}

// Run invokes every hook registered for phase across the given active
// profile URIs, in registration order. The first error returned by a hook
// stops the run and propagates to the caller.
func (d *Dispatcher) Run(phase Phase, active []string, arg any) error {
	activeSet := make(map[string]bool, len(active))
	for _, uri := range active {
		activeSet[uri] = true
	}

	for _, uri := range d.order {
		if !activeSet[uri] {
			continue
		}
		p := d.profiles[uri]
		for _, h := range p.Hooks[phase] {
			if err := h(arg); err != nil {
				return err
			}
		}
	}
	return nil
}
