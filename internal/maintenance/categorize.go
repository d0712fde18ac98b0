// Copyright 2025 Tom Barlow
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

package maintenance

import "strings"

// Partition assigns each VM name to at most one category.
//
// Categories are processed in slice order and that order is the precedence
// contract: a name claimed by an earlier category is never reassigned. A
// category whose selectors include the literal "remaining" claims every name
// not yet assigned. The result contains an entry for every category, empty
// or not, so callers can report "no VMs found in this category".
func Partition(vmNames []string, categories []Category) map[string][]string {
	assigned := make(map[string][]string, len(categories))
	used := make(map[string]struct{}, len(vmNames))

	for _, cat := range categories {
		assigned[cat.Name] = []string{}

		if containsString(cat.Selectors, SelectorRemaining) {
			for _, name := range vmNames {
				if _, taken := used[name]; taken {
					continue
				}
				assigned[cat.Name] = append(assigned[cat.Name], name)
				used[name] = struct{}{}
			}
			continue
		}

		for _, name := range vmNames {
			if _, taken := used[name]; taken {
				continue
			}
			if matchesSelectors(name, cat.Selectors) {
				assigned[cat.Name] = append(assigned[cat.Name], name)
				used[name] = struct{}{}
			}
		}
	}

	return assigned
}

// Categorize partitions the given VM names according to the plan's category
// order.
func (p *Plan) Categorize(vmNames []string) map[string][]string {
	return Partition(vmNames, p.Categories)
}

// matchesSelectors reports whether a VM name matches any selector.
//
// Matching is case-insensitive substring containment in either direction,
// with naive plural folding: a trailing "s" is stripped from both the
// selector and the name before comparing, so "workers" still matches
// "k8s-worker-01".
func matchesSelectors(vmName string, selectors []string) bool {
	name := strings.ToLower(vmName)
	nameSingular := strings.TrimSuffix(name, "s")

	for _, selector := range selectors {
		sel := strings.ToLower(selector)
		selSingular := strings.TrimSuffix(sel, "s")

		if strings.Contains(name, sel) ||
			strings.Contains(name, selSingular) ||
			strings.Contains(sel, name) ||
			strings.Contains(selSingular, name) ||
			strings.Contains(sel, nameSingular) ||
			strings.Contains(selSingular, nameSingular) {
			return true
		}
	}
	return false
}
