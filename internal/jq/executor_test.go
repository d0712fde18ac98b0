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

package jq

import (
	"context"
	"reflect"
	"testing"
)

type vmRow struct {
	Name       string `json:"name"`
	PowerState string `json:"power_state"`
}

func TestTransform_StructInput(t *testing.T) {
	e := NewExecutor(0, 0)
	rows := []vmRow{
		{Name: "k8s-worker-01", PowerState: "poweredOn"},
		{Name: "db-01", PowerState: "poweredOff"},
	}

	got, err := e.Transform(context.Background(), "[.[] | .name]", rows)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	want := []interface{}{"k8s-worker-01", "db-01"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Transform() = %v, want %v", got, want)
	}
}

func TestTransform_EmptyExpressionPassesThrough(t *testing.T) {
	e := NewExecutor(0, 0)
	rows := []vmRow{{Name: "a"}}

	got, err := e.Transform(context.Background(), "", rows)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("empty expression should return input unchanged, got %v", got)
	}
}

func TestTransform_SingleResultIsBare(t *testing.T) {
	e := NewExecutor(0, 0)

	got, err := e.Transform(context.Background(), "length", []vmRow{{}, {}})
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if got != 2 {
		t.Errorf("Transform() = %v (%T), want 2", got, got)
	}
}

func TestTransform_ParseError(t *testing.T) {
	e := NewExecutor(0, 0)

	if _, err := e.Transform(context.Background(), ".[ |", nil); err == nil {
		t.Error("Transform() should fail on a bad expression")
	}
}

func TestValidate(t *testing.T) {
	e := NewExecutor(0, 0)

	if err := e.Validate(".[].name"); err != nil {
		t.Errorf("Validate() of good expression: %v", err)
	}
	if err := e.Validate(".[ |"); err == nil {
		t.Error("Validate() should fail on a bad expression")
	}
	if err := e.Validate(""); err != nil {
		t.Errorf("Validate(\"\") should pass: %v", err)
	}
}
