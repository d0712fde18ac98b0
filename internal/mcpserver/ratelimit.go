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

package mcpserver

import (
	"golang.org/x/time/rate"
)

// toolLimiter throttles tool calls so a runaway agent cannot hammer the
// vCenter API. State-changing tools share a much smaller bucket than reads.
type toolLimiter struct {
	read  *rate.Limiter
	write *rate.Limiter
}

func newToolLimiter() *toolLimiter {
	return &toolLimiter{
		// Reads: 10 req/s with burst of 10.
		read: rate.NewLimiter(rate.Limit(10), 10),
		// Power, clone, deploy: 2 req/s with burst of 2.
		write: rate.NewLimiter(rate.Limit(2), 2),
	}
}

// allowRead reports whether a read-only call may proceed now.
func (l *toolLimiter) allowRead() bool {
	return l.read.Allow()
}

// allowWrite reports whether a state-changing call may proceed now.
func (l *toolLimiter) allowWrite() bool {
	return l.write.Allow()
}
