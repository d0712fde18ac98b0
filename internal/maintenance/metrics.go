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

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// plansParsed tracks runbook parses by outcome
	plansParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vcops_maintenance_plans_parsed_total",
			Help: "Total maintenance runbook parses by outcome",
		},
		[]string{"outcome"},
	)

	// wavesExecuted tracks waves executed by sequence
	wavesExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vcops_maintenance_waves_total",
			Help: "Total maintenance waves executed by sequence",
		},
		[]string{"sequence"},
	)

	// powerActions tracks individual power actions by sequence and outcome
	powerActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vcops_maintenance_power_actions_total",
			Help: "Total power actions by sequence and outcome",
		},
		[]string{"sequence", "outcome"},
	)

	// runbookReloads tracks watcher-triggered runbook reloads
	runbookReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vcops_maintenance_runbook_reloads_total",
			Help: "Total runbook reloads by outcome",
		},
		[]string{"outcome"},
	)
)

// recordParse increments the parse counter
func recordParse(outcome string) {
	plansParsed.WithLabelValues(outcome).Inc()
}

// recordWave increments the wave counter
func recordWave(sequence string) {
	wavesExecuted.WithLabelValues(sequence).Inc()
}

// recordPowerAction increments the power action counter
func recordPowerAction(sequence, outcome string) {
	powerActions.WithLabelValues(sequence, outcome).Inc()
}

// recordReload increments the runbook reload counter
func recordReload(outcome string) {
	runbookReloads.WithLabelValues(outcome).Inc()
}
