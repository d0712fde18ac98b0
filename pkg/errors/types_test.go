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

package errors

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "with field",
			err:  &ValidationError{Field: "vm_name", Message: "must not be empty"},
			want: "validation failed on vm_name: must not be empty",
		},
		{
			name: "without field",
			err:  &ValidationError{Message: "no waves found"},
			want: "validation failed: no waves found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundError_Error(t *testing.T) {
	err := &NotFoundError{Resource: "vm", ID: "k8s-worker-01"}
	want := "vm not found: k8s-worker-01"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConnectionError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &ConnectionError{Host: "vcsa.example.com", Message: "login failed", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !strings.Contains(err.Error(), "vcsa.example.com") {
		t.Errorf("Error() should include the host, got %q", err.Error())
	}
}

func TestTimeoutError_Error(t *testing.T) {
	err := &TimeoutError{Operation: "power on", Duration: 30 * time.Second}
	want := "power on operation timed out after 30s"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTaskError_Error(t *testing.T) {
	err := &TaskError{Operation: "CloneVM_Task", Target: "web-01", Message: "insufficient disk space"}
	want := "CloneVM_Task failed for web-01: insufficient disk space"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsNotFound(t *testing.T) {
	inner := &NotFoundError{Resource: "host", ID: "esx-01"}
	wrapped := Wrap(inner, "looking up host")

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound should be false for unrelated errors")
	}
}

func TestIsTimeout(t *testing.T) {
	inner := &TimeoutError{Operation: "clone", Duration: time.Minute}
	wrapped := Wrapf(inner, "cloning %s", "db-01")

	if !IsTimeout(wrapped) {
		t.Error("IsTimeout should see through wrapping")
	}
}
