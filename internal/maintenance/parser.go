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

// Package maintenance parses operator-authored maintenance runbooks into
// ordered power waves and matches live VM names against them.
//
// A runbook is free-form Markdown with a shutdown section and a startup
// section. Each section lists waves (numbered headings, "Wave N:" lines, or
// ordinal connectives); every wave carries selector phrases that are matched
// against VM names by Partition. Nothing here touches vCenter: the parser is
// pure text processing so it can be tested without a live environment.
package maintenance

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// Wave is one ordered step of a power sequence.
type Wave struct {
	// Order is the 1-based position within the sequence.
	Order int `json:"order"`

	// Category is the fixed-vocabulary label the wave heading classified to.
	Category string `json:"category"`

	// Description is the title-cased heading text.
	Description string `json:"description"`

	// Selectors are the lowercase match phrases extracted around the heading.
	Selectors []string `json:"selectors"`
}

// Category pairs a label with the union of selectors its waves declared.
// Plan.Categories is an ordered slice: position is matching precedence.
type Category struct {
	Name      string
	Selectors []string
}

// Plan is the parsed form of a maintenance runbook.
type Plan struct {
	DownWaves  []Wave
	UpWaves    []Wave
	Categories []Category

	// Source is the original runbook text.
	Source string
}

// Empty reports whether the plan contains no waves at all.
func (p *Plan) Empty() bool {
	return len(p.DownWaves) == 0 && len(p.UpWaves) == 0
}

// Waves returns the wave list for the given sequence.
func (p *Plan) Waves(seq Sequence) []Wave {
	if seq == SequenceUp {
		return p.UpWaves
	}
	return p.DownWaves
}

// Sequence selects one of the two power sequences of a plan.
type Sequence string

const (
	// SequenceDown is the shutdown sequence.
	SequenceDown Sequence = "down"
	// SequenceUp is the startup sequence.
	SequenceUp Sequence = "up"
)

// Parser converts runbook text into a Plan. The zero value is not usable;
// call NewParser.
type Parser struct {
	rules []ClassifierRule
	title cases.Caser
}

// NewParser returns a parser using the default classification rule table.
func NewParser() *Parser {
	return NewParserWithRules(defaultClassifierRules)
}

// NewParserWithRules returns a parser with a caller-supplied ordered rule
// table, letting deployments extend the category vocabulary without forking
// the parser.
func NewParserWithRules(rules []ClassifierRule) *Parser {
	return &Parser{
		rules: rules,
		title: cases.Title(language.English),
	}
}

// Parse converts runbook text into a Plan.
//
// Empty or whitespace-only input yields an empty plan and no error. Input
// that contains text but no recognizable power sequence yields a
// ValidationError.
func (p *Parser) Parse(text string) (*Plan, error) {
	plan := &Plan{Source: text}
	if strings.TrimSpace(text) == "" {
		return plan, nil
	}

	lower := strings.ToLower(text)
	shutdown, startup := splitSections(lower)

	plan.DownWaves = p.parseWaves(shutdown)
	plan.UpWaves = p.parseWaves(startup)

	if plan.Empty() {
		return nil, &vcerrors.ValidationError{
			Field:      "instructions",
			Message:    "no power sequences found in instructions",
			Suggestion: "add a shutdown and/or startup section with numbered waves, e.g. \"1. **Worker Nodes**\"",
		}
	}

	plan.Categories = collectCategories(plan.DownWaves, plan.UpWaves)
	return plan, nil
}

// Parse is a convenience wrapper using the default parser.
func Parse(text string) (*Plan, error) {
	return NewParser().Parse(text)
}

// splitSections scans the runbook line by line and accumulates the shutdown
// and startup sections. A line containing a shutdown keyword opens (or
// re-opens) the shutdown section; a startup keyword opens the startup
// section; a "##" heading with neither keyword closes the current section.
func splitSections(text string) (shutdown, startup string) {
	var down, up strings.Builder
	current := ""

	for _, line := range strings.Split(text, "\n") {
		switch {
		case matchesAny(line, shutdownKeywords):
			current = "shutdown"
		case matchesAny(line, startupKeywords):
			current = "startup"
		case strings.HasPrefix(line, "##") && current != "":
			current = ""
		}

		switch current {
		case "shutdown":
			down.WriteString(line)
			down.WriteString("\n")
		case "startup":
			up.WriteString(line)
			up.WriteString("\n")
		}
	}

	return down.String(), up.String()
}

func matchesAny(line string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// parseWaves extracts the ordered waves of one section. Each line produces
// at most one wave: the first marker pattern that matches wins. A wave's
// selectors are extracted from its block, the marker line through the line
// before the next marker, so bullet items under a heading attach to the
// right wave. When no line carries an explicit marker the natural-language
// fallback runs over the whole section.
func (p *Parser) parseWaves(section string) []Wave {
	if strings.TrimSpace(section) == "" {
		return nil
	}

	lines := strings.Split(section, "\n")

	type marker struct {
		line int
		desc string
	}
	var markers []marker
	for i, line := range lines {
		if desc, ok := matchWaveMarker(line); ok {
			markers = append(markers, marker{line: i, desc: desc})
		}
	}

	if len(markers) == 0 {
		return p.inferNaturalWaves(section)
	}

	waves := make([]Wave, 0, len(markers))
	for i, m := range markers {
		end := len(lines)
		if i+1 < len(markers) {
			end = markers[i+1].line
		}
		block := strings.Join(lines[m.line:end], "\n")
		waves = append(waves, Wave{
			Order:       i + 1,
			Category:    classify(m.desc, p.rules),
			Description: p.title.String(m.desc),
			Selectors:   extractSelectors(block),
		})
	}
	return waves
}

// matchWaveMarker tries the marker patterns in order against a single line
// and returns the raw wave description of the first match.
func matchWaveMarker(line string) (desc string, ok bool) {
	for _, re := range waveMarkers {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// Two-group markers carry the description in the second group,
		// single-group markers in the first.
		if len(m) >= 3 && m[2] != "" {
			desc = m[2]
		} else {
			desc = m[1]
		}
		return strings.TrimSpace(desc), true
	}
	return "", false
}

// inferNaturalWaves falls back to ordinal connectives ("first, ...",
// "then, ...", "finally, ...") when a section has no explicit markers.
// Selectors are scoped to the sentence containing the connective.
func (p *Parser) inferNaturalWaves(section string) []Wave {
	var waves []Wave
	for _, re := range naturalMarkers {
		for _, loc := range re.FindAllStringSubmatchIndex(section, -1) {
			desc := strings.TrimSpace(section[loc[2]:loc[3]])
			waves = append(waves, Wave{
				Order:       len(waves) + 1,
				Category:    classify(desc, p.rules),
				Description: p.title.String(desc),
				Selectors:   selectorsAround(section, loc[0]),
			})
		}
	}
	return waves
}

var sentenceSplit = regexp.MustCompile(`[.!?]`)

// selectorsAround extracts selector phrases from the sentence that contains
// the given position. Runbook bullet lists rarely contain periods, so the
// "sentence" usually spans the wave heading and its bullet items.
func selectorsAround(text string, pos int) []string {
	current := 0
	for _, sentence := range sentenceSplit.Split(text, -1) {
		end := current + len(sentence)
		if current <= pos && pos <= end {
			return extractSelectors(sentence)
		}
		current = end + 1
	}
	return nil
}

// extractSelectors applies the selector patterns to a block of text and
// returns cleaned, deduplicated selectors in extraction order. Category
// vocabulary words found in the block are appended as selectors too, so a
// heading like "Wave 3 - Remaining VMs" contributes the literal "remaining"
// even when the block has no explicit selector syntax.
func extractSelectors(block string) []string {
	var raw []string
	for _, re := range selectorPatterns {
		for _, m := range re.FindAllStringSubmatch(block, -1) {
			for _, group := range m[1:] {
				if group == "" {
					continue
				}
				// "selectors: a, b" captures the whole list in one group.
				for _, part := range strings.Split(group, ",") {
					raw = append(raw, part)
				}
			}
		}
	}

	lower := strings.ToLower(block)
	for _, kw := range vocabularySelectors {
		if strings.Contains(lower, kw) {
			raw = append(raw, kw)
		}
	}

	var selectors []string
	seen := make(map[string]struct{})
	for _, s := range raw {
		clean := strings.ToLower(strings.Join(strings.Fields(s), " "))
		if clean == "" {
			continue
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		selectors = append(selectors, clean)
	}
	return selectors
}

// collectCategories builds the ordered category list from the waves of both
// sequences. First appearance fixes a category's position; later waves with
// the same category merge their selectors into it.
func collectCategories(down, up []Wave) []Category {
	var categories []Category
	index := make(map[string]int)

	for _, wave := range append(append([]Wave{}, down...), up...) {
		if wave.Category == "" || len(wave.Selectors) == 0 {
			continue
		}
		i, ok := index[wave.Category]
		if !ok {
			index[wave.Category] = len(categories)
			categories = append(categories, Category{
				Name:      wave.Category,
				Selectors: append([]string{}, wave.Selectors...),
			})
			continue
		}
		for _, s := range wave.Selectors {
			if !containsString(categories[i].Selectors, s) {
				categories[i].Selectors = append(categories[i].Selectors, s)
			}
		}
	}
	return categories
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
