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

package tracing

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

// A single provider per process: the Prometheus exporter registers with
// the default registry and a second registration would collide.
func TestProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{
		ServiceName:    "vcops-test",
		ServiceVersion: "0.0.0",
		Exporter:       ExporterNone,
	})
	if err != nil {
		t.Fatalf("NewProvider() error: %v", err)
	}
	defer p.Shutdown(ctx)

	tracer := p.Tracer("test")
	_, span := tracer.Start(ctx, "vm.power_on")
	span.End()

	if err := p.ForceFlush(ctx); err != nil {
		t.Errorf("ForceFlush() error: %v", err)
	}

	rec := httptest.NewRecorder()
	p.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Errorf("metrics endpoint returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "target_info") {
		t.Errorf("metrics output missing otel target_info:\n%s", rec.Body.String()[:min(200, rec.Body.Len())])
	}
}

func TestNewSpanExporter_Unknown(t *testing.T) {
	if _, err := newSpanExporter(context.Background(), Config{Exporter: "jaeger"}); err == nil {
		t.Error("expected an error for an unknown exporter type")
	}
}

func TestNewSpanExporter_NoneIsNil(t *testing.T) {
	exp, err := newSpanExporter(context.Background(), Config{Exporter: ExporterNone})
	if err != nil || exp != nil {
		t.Errorf("none exporter should be nil, got %v, %v", exp, err)
	}
}
