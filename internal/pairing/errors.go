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

package pairing

import "github.com/zrc-project/zrc/internal/zrcerr"

// Sentinel-style constructors for the pairing failure reasons named in
// spec §4.3, each pre-classified into the stable exit-code kind.
func errInvalidInvite(reason string) error {
	return zrcerr.New(zrcerr.KindInvalidInput, "invalid invite: "+reason)
}

func errInviteExpired() error {
	return zrcerr.New(zrcerr.KindInvalidInput, "invite expired")
}

func errDecode(reason string) error {
	return zrcerr.New(zrcerr.KindInvalidInput, "decode: "+reason)
}

func errSignatureInvalid() error {
	return zrcerr.New(zrcerr.KindAuthentication, "device signature invalid")
}

func errSecretMismatch() error {
	return zrcerr.New(zrcerr.KindAuthentication, "invite secret does not match hash")
}

func errNoPermissions() error {
	return zrcerr.New(zrcerr.KindPermissionDenied, "receipt granted no permissions")
}

func errTimeout() error {
	return zrcerr.New(zrcerr.KindTimeout, "pairing attempt timed out")
}

func errWrongState(got, want string) error {
	return zrcerr.New(zrcerr.KindInvalidInput, "pairing state is "+got+", expected "+want)
}
