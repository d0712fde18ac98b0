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

// Package secrets stores vCenter credentials in the operating system keyring
// so they do not have to live in environment variables or config files.
package secrets

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

// service is the keyring service name under which all vcops secrets live.
const service = "vcops"

// credentialKey derives the keyring entry name for a host/user pair.
func credentialKey(host, user string) string {
	return fmt.Sprintf("vcenter:%s:%s", host, user)
}

// GetPassword retrieves the stored password for the given vCenter host and
// user. Returns ("", nil) when no entry exists so callers can fall through
// to other credential sources.
func GetPassword(host, user string) (string, error) {
	secret, err := keyring.Get(service, credentialKey(host, user))
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading keyring entry for %s@%s: %w", user, host, err)
	}
	return secret, nil
}

// SetPassword stores the password for the given vCenter host and user.
func SetPassword(host, user, password string) error {
	if err := keyring.Set(service, credentialKey(host, user), password); err != nil {
		return fmt.Errorf("storing keyring entry for %s@%s: %w", user, host, err)
	}
	return nil
}

// DeletePassword removes the stored password for the given vCenter host and
// user. Deleting a missing entry is not an error.
func DeletePassword(host, user string) error {
	err := keyring.Delete(service, credentialKey(host, user))
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting keyring entry for %s@%s: %w", user, host, err)
	}
	return nil
}
