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

package zrcerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode_StableMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		code int
	}{
		{KindSuccess, 0},
		{KindInternal, 1},
		{KindAuthentication, 2},
		{KindTimeout, 3},
		{KindTransport, 4},
		{KindInvalidInput, 5},
		{KindNotPaired, 6},
		{KindPermissionDenied, 7},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, ExitCode(tc.kind))
	}
}

func TestExitCode_OnlySuccessMapsToZero(t *testing.T) {
	allKinds := []Kind{
		KindInvalidInput, KindAuthentication, KindTimeout, KindTransport,
		KindNotPaired, KindPermissionDenied, KindQuota, KindVerification, KindInternal,
	}
	for _, k := range allKinds {
		assert.NotEqual(t, 0, ExitCode(k), "kind %s must not map to exit 0", k)
	}
}

func TestExitCode_AlwaysInRange(t *testing.T) {
	allKinds := []Kind{
		KindSuccess, KindInvalidInput, KindAuthentication, KindTimeout, KindTransport,
		KindNotPaired, KindPermissionDenied, KindQuota, KindVerification, KindInternal, Kind(999),
	}
	for _, k := range allKinds {
		code := ExitCode(k)
		assert.GreaterOrEqual(t, code, 0)
		assert.LessOrEqual(t, code, 255)
	}
}

func TestClassifyOf_WrapsAndUnwraps(t *testing.T) {
	base := errors.New("signature mismatch")
	wrapped := Wrap(KindAuthentication, "invite proof invalid", base)

	assert.Equal(t, KindAuthentication, ClassifyOf(wrapped))
	assert.Equal(t, 2, ExitCodeOf(wrapped))
	assert.ErrorIs(t, wrapped, base)
}

func TestClassifyOf_UnclassifiedIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, ClassifyOf(errors.New("boom")))
	assert.Equal(t, KindSuccess, ClassifyOf(nil))
}
