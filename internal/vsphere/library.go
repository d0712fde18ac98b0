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

package vsphere

import (
	"context"

	"github.com/vmware/govmomi/vapi/library"

	vcerrors "github.com/tombee/vcops/pkg/errors"
)

// LibraryItem is one content library item, typically an OVF template.
type LibraryItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Library string `json:"library"`
}

// ListLibraryItems returns the items of every content library. Templates
// stored in content libraries do not show up in the VM inventory, so this
// is the companion view to ListTemplates.
func (c *Client) ListLibraryItems(ctx context.Context) ([]LibraryItem, error) {
	rc, err := c.restSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	mgr := library.NewManager(rc)
	libs, err := mgr.GetLibraries(ctx)
	if err != nil {
		return nil, vcerrors.Wrap(err, "listing content libraries")
	}

	var items []LibraryItem
	for _, lib := range libs {
		libItems, err := mgr.GetLibraryItems(ctx, lib.ID)
		if err != nil {
			return nil, vcerrors.Wrapf(err, "listing items of library %s", lib.Name)
		}
		for _, item := range libItems {
			items = append(items, LibraryItem{
				ID:      item.ID,
				Name:    item.Name,
				Type:    item.Type,
				Library: lib.Name,
			})
		}
	}
	return items, nil
}
