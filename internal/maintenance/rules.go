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

import "regexp"

// Fixed category vocabulary. Wave headings are classified into one of these
// labels; CategoryOther is the fallback for headings no rule claims.
const (
	CategoryWorkerNodes  = "worker_nodes"
	CategoryControlPlane = "control_plane"
	CategoryApplications = "applications"
	CategoryDatabase     = "database"
	CategoryRemaining    = "remaining"
	CategoryOther        = "other"
)

// SelectorRemaining is the literal selector that claims every VM not already
// assigned to an earlier category.
const SelectorRemaining = "remaining"

// ClassifierRule maps a description pattern to a category label.
type ClassifierRule struct {
	Pattern  *regexp.Regexp
	Category string
}

// defaultClassifierRules is the ordered rule table used to classify wave
// descriptions. Order is precedence: the first matching rule wins, so the
// classification contract is explicit rather than a side effect of map
// iteration.
var defaultClassifierRules = []ClassifierRule{
	{regexp.MustCompile(`(?i)worker\s*nodes?|worker\s*servers?|compute\s*nodes?|workers?`), CategoryWorkerNodes},
	{regexp.MustCompile(`(?i)control[\s\-]*plane|masters?|api\s*server|apiserver`), CategoryControlPlane},
	{regexp.MustCompile(`(?i)applications?|app\s*servers?|apps?|services?`), CategoryApplications},
	{regexp.MustCompile(`(?i)databases?|db\s*servers?|db|sql|mysql|postgres`), CategoryDatabase},
	{regexp.MustCompile(`(?i)remaining|everything\s*else|rest|others`), CategoryRemaining},
	// Bare-keyword fallbacks, lower precedence than the phrase rules above.
	// These catch descriptions the markers truncated, e.g. "control" left
	// over after the marker pattern consumed the word "plane". The bare
	// "node" keyword lives down here so headings like "Database Nodes"
	// reach their more specific phrase rule first.
	{regexp.MustCompile(`(?i)worker|node`), CategoryWorkerNodes},
	{regexp.MustCompile(`(?i)master|control`), CategoryControlPlane},
	{regexp.MustCompile(`(?i)app|service`), CategoryApplications},
	{regexp.MustCompile(`(?i)db|database`), CategoryDatabase},
	{regexp.MustCompile(`(?i)remaining|rest|else`), CategoryRemaining},
}

// classify maps a wave description onto the fixed category vocabulary using
// the ordered rule table.
func classify(description string, rules []ClassifierRule) string {
	for _, rule := range rules {
		if rule.Pattern.MatchString(description) {
			return rule.Category
		}
	}
	return CategoryOther
}

// Section heading keywords. A line matching a shutdown keyword opens the
// shutdown section, a startup keyword opens the startup section, and a
// Markdown "##" heading inside a section closes it.
var (
	shutdownKeywords = []*regexp.Regexp{
		regexp.MustCompile(`shut\s*down`),
		regexp.MustCompile(`power\s*off`),
		regexp.MustCompile(`turn\s*off`),
		regexp.MustCompile(`stop`),
		regexp.MustCompile(`power[\s\-]*down`),
		regexp.MustCompile(`shutdown`),
		regexp.MustCompile(`poweroff`),
	}
	startupKeywords = []*regexp.Regexp{
		regexp.MustCompile(`start\s*up`),
		regexp.MustCompile(`power\s*on`),
		regexp.MustCompile(`turn\s*on`),
		regexp.MustCompile(`start`),
		regexp.MustCompile(`bring\s*up`),
		regexp.MustCompile(`power[\s\-]*up`),
		regexp.MustCompile(`startup`),
		regexp.MustCompile(`poweron`),
		regexp.MustCompile(`boot`),
	}
)

// Wave marker patterns, tried in order against each line of a section.
// The first match wins and produces exactly one wave for the line.
var waveMarkers = []*regexp.Regexp{
	// 1. **Wave 1 - Worker Nodes**
	regexp.MustCompile(`(?i)(\d+)\.?\s*\*\*([^*]+)\*\*`),
	// Wave 1: Worker Nodes
	regexp.MustCompile(`(?i)wave\s*(\d+)[:\-]?\s*([^,\n]+)`),
	// 1. Worker Nodes
	regexp.MustCompile(`(?i)(\d+)\.?\s*([^,\n]+?)(?:nodes?|plane|vms?|applications?)`),
	// First: Worker Nodes
	regexp.MustCompile(`(?i)first[:\-]\s*([^,\n]+)`),
	regexp.MustCompile(`(?i)second[:\-]\s*([^,\n]+)`),
	regexp.MustCompile(`(?i)third[:\-]\s*([^,\n]+)`),
}

// Natural-language ordinal connectives, the fallback when a section has no
// explicit wave markers.
var naturalMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)first[,\s]+([^,.]+)`),
	regexp.MustCompile(`(?i)second[,\s]+([^,.]+)`),
	regexp.MustCompile(`(?i)third[,\s]+([^,.]+)`),
	regexp.MustCompile(`(?i)then[,\s]+([^,.]+)`),
	regexp.MustCompile(`(?i)next[,\s]+([^,.]+)`),
	regexp.MustCompile(`(?i)finally[,\s]+([^,.]+)`),
}

// vocabularySelectors are category vocabulary words appended as selectors
// whenever they appear in a wave's block. The literal "remaining" is how a
// catch-all wave ends up claiming unassigned VMs; the bare "rest" keyword is
// deliberately absent because it false-matches words like "restart".
var vocabularySelectors = []string{
	"worker node",
	"worker",
	"node",
	"control plane",
	"control-plane",
	"master",
	"application",
	"app",
	"service",
	"database",
	"db",
	"remaining",
	"everything else",
}

// Selector extraction patterns, applied to the block of text belonging to a
// wave. Every capture group contributes a selector.
var selectorPatterns = []*regexp.Regexp{
	// Quoted strings: "worker"
	regexp.MustCompile(`"([^"]+)"`),
	// Alternatives: worker or node
	regexp.MustCompile(`(?i)(\w+(?:\s+\w+)*)\s+or\s+(\w+(?:\s+\w+)*)`),
	// Bullet items: - worker
	regexp.MustCompile(`[-•]\s*(\w+(?:\s+\w+)*)`),
	// Explicit lists: selectors: worker, node
	regexp.MustCompile(`(?i)selectors?:\s*(\w+(?:\s*,\s*\w+)*)`),
	// Phrases: worker in their names
	regexp.MustCompile(`(?i)(\w+(?:\s+\w+)*)\s+in\s+their\s+names?`),
}
