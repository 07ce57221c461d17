// Copyright (C) 2026 zrc-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ManifestURLSubstitution(t *testing.T) {
	mgr, err := NewManager(Stable, "https://updates.example/channels/{channel}/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "https://updates.example/channels/stable/manifest.json", mgr.ManifestURL())
}

func TestManager_SetChannelUpdatesURL(t *testing.T) {
	mgr, err := NewManager(Stable, "https://updates.example/channels/{channel}/manifest.json")
	require.NoError(t, err)
	require.NoError(t, mgr.SetChannel(Beta))
	assert.Equal(t, "https://updates.example/channels/beta/manifest.json", mgr.ManifestURL())
}

func TestManager_RejectsUnknownChannel(t *testing.T) {
	_, err := NewManager(Channel("unstable"), "https://updates.example/channels/{channel}/manifest.json")
	assert.Error(t, err)
}

func TestManager_RejectsTemplateWithoutPlaceholder(t *testing.T) {
	_, err := NewManager(Stable, "https://updates.example/manifest.json")
	assert.Error(t, err)
}

func TestManager_SetChannelRejectsUnknown(t *testing.T) {
	mgr, err := NewManager(Stable, "https://updates.example/channels/{channel}/manifest.json")
	require.NoError(t, err)
	assert.Error(t, mgr.SetChannel(Channel("bogus")))
}
