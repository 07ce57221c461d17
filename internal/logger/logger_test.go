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

package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, WarnLevel)

	l.Info("should not appear")
	assert.Empty(t, buf.String())

	l.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestStructuredLogger_FieldsAreEmitted(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, DebugLevel)

	l.Info("pairing confirmed", String("device_id", "ab12"), Int("perm_mask", 3))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ab12", entry["device_id"])
	assert.Equal(t, float64(3), entry["perm_mask"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestStructuredLogger_WithFieldsIsCumulative(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, DebugLevel)
	derived := base.WithFields(String("component", "pairing"))

	derived.Info("state transition")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "pairing", entry["component"])
}

func TestLevel_String(t *testing.T) {
	cases := map[Level]string{
		DebugLevel: "DEBUG",
		InfoLevel:  "INFO",
		WarnLevel:  "WARN",
		ErrorLevel: "ERROR",
		FatalLevel: "FATAL",
		Level(99):  "UNKNOWN",
	}
	for level, want := range cases {
		assert.Equal(t, want, level.String())
	}
}

func TestStructuredLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, DebugLevel)

	l.Error("relay allocation failed", Error(assertErr{"quota exceeded"}))
	assert.True(t, strings.Contains(buf.String(), "quota exceeded"))
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
