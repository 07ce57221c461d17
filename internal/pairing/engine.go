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

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/zrc-project/zrc/internal/metrics"
	"github.com/zrc-project/zrc/internal/transcript"
	"github.com/zrc-project/zrc/internal/wire"
)

// StateKind is one of the five pairing states from spec §4.3.
type StateKind int

const (
	StateIdle StateKind = iota
	StateInviteImported
	StateRequestSent
	StateAwaitingSAS
	StatePaired
	StateFailed
)

func (s StateKind) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateInviteImported:
		return "InviteImported"
	case StateRequestSent:
		return "RequestSent"
	case StateAwaitingSAS:
		return "AwaitingSAS"
	case StatePaired:
		return "Paired"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// DefaultTimeout is the pairing attempt's overall deadline (spec §5).
const DefaultTimeout = 300 * time.Second

// Signer is the subset of internal/identity.Identity the engine needs:
// signing and identifying this side of the pairing (the operator).
type Signer interface {
	SignPub() ed25519.PublicKey
	KexPub() []byte
	ID32() [32]byte
}

// Engine drives one pairing attempt through Idle → ... → Paired/Failed. It
// is not safe for concurrent use by multiple goroutines driving the same
// attempt; a single task owns it, per spec §5's "synchronous and
// reentrancy-safe only via the owning task."
type Engine struct {
	mu sync.Mutex

	state StateKind
	self  Signer

	invite *Invite
	secret []byte

	request *PairRequest
	receipt *PairReceipt
	sas     string

	pairedDeviceID [32]byte
	pairedPerms    uint32
	failReason     string

	deadline time.Time
	timeout  time.Duration
	now      func() time.Time
}

// NewEngine creates a pairing engine for operator identity self.
func NewEngine(self Signer) *Engine {
	return &Engine{
		state:   StateIdle,
		self:    self,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
}

// State returns the current state kind.
func (e *Engine) State() StateKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Reset returns the engine to Idle, clearing all attempt state and
// zeroizing the invite secret.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	zero(e.secret)
	e.state = StateIdle
	e.invite = nil
	e.secret = nil
	e.request = nil
	e.receipt = nil
	e.sas = ""
	e.pairedDeviceID = [32]byte{}
	e.pairedPerms = 0
	e.failReason = ""
	e.deadline = time.Time{}
}

func (e *Engine) armDeadline() {
	if e.deadline.IsZero() {
		e.deadline = e.now().Add(e.timeout)
	}
}

func (e *Engine) checkDeadline() error {
	if !e.deadline.IsZero() && e.now().After(e.deadline) {
		e.failLocked("timeout", "expired")
		return errTimeout()
	}
	return nil
}

// failLocked transitions to Failed, recording both the human-readable
// reason and the metrics-label reason (one of bad_code, expired, replay,
// rejected). Callers must already hold e.mu.
func (e *Engine) failLocked(reason, metricReason string) {
	e.state = StateFailed
	e.failReason = reason
	metrics.PairingAttempts.WithLabelValues("failed").Inc()
	metrics.PairingFailures.WithLabelValues(metricReason).Inc()
}

// decodeInviteSource tries, in order, raw bytes, standard base64, URL-safe
// base64, and URL-safe-no-padding base64 — spec §6 "Importers must try all
// three [base64 flavors]."
func decodeInviteSource(source []byte) ([]byte, error) {
	if _, err := DecodeInvite(source); err == nil {
		return source, nil
	}
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		decoded, err := enc.DecodeString(string(source))
		if err == nil {
			return decoded, nil
		}
	}
	return nil, errDecode("not raw, or valid base64 in any known flavor")
}

// ImportInvite accepts an invite as raw canonical bytes or any of the
// three base64 flavors (a file's contents or a QR payload's decoded
// bytes arrive the same way — image scanning is the caller's concern,
// not this package's). It validates field sizes and freshness.
func (e *Engine) ImportInvite(source []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	raw, err := decodeInviteSource(source)
	if err != nil {
		return err
	}
	inv, err := DecodeInvite(raw)
	if err != nil {
		return errInvalidInvite(err.Error())
	}
	if inv.ExpiresAt <= uint64(e.now().Unix()) {
		return errInviteExpired()
	}

	e.resetLocked()
	e.invite = inv
	e.state = StateInviteImported
	return nil
}

// ImportInviteWithSecret is ImportInvite plus an immediate secret-hash
// check, so the secret is validated before any state-advancing call.
func (e *Engine) ImportInviteWithSecret(source []byte, secret []byte) error {
	start := time.Now()
	defer func() {
		metrics.PairingDuration.WithLabelValues("challenge").Observe(time.Since(start).Seconds())
	}()

	if err := e.ImportInvite(source); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	hash := sha256.Sum256(secret)
	if subtle.ConstantTimeCompare(hash[:], e.invite.InviteSecretHash[:]) != 1 {
		e.failLocked("secret mismatch", "bad_code")
		return errSecretMismatch()
	}
	e.secret = append([]byte(nil), secret...)
	return nil
}

// Resume re-enters the RequestSent state from a request this engine
// generated in a previous process's lifetime, verifying the invite/secret
// pair still matches before trusting req. A pairing attempt spans two
// out-of-band round trips (request to the device, receipt back); a
// short-lived CLI process cannot hold an Engine alive across both, so the
// caller persists invite, secret, and the generated request and calls
// Resume to continue from HandleReceipt in a fresh process.
func (e *Engine) Resume(inviteSource []byte, secret []byte, req *PairRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	raw, err := decodeInviteSource(inviteSource)
	if err != nil {
		return err
	}
	inv, err := DecodeInvite(raw)
	if err != nil {
		return errInvalidInvite(err.Error())
	}

	hash := sha256.Sum256(secret)
	if subtle.ConstantTimeCompare(hash[:], inv.InviteSecretHash[:]) != 1 {
		return errSecretMismatch()
	}

	e.resetLocked()
	e.invite = inv
	e.secret = append([]byte(nil), secret...)
	e.request = req
	e.state = StateRequestSent
	e.armDeadline()
	return nil
}

// GeneratePairRequest builds and signs the operator's pair request
// (spec §4.3). Preconditions: state is InviteImported with a matching
// secret and the invite has not expired.
func (e *Engine) GeneratePairRequest(secret []byte, requestedPerms uint32) (*PairRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInviteImported {
		return nil, errWrongState(e.state.String(), StateInviteImported.String())
	}
	e.armDeadline()
	if err := e.checkDeadline(); err != nil {
		return nil, err
	}

	hash := sha256.Sum256(secret)
	if subtle.ConstantTimeCompare(hash[:], e.invite.InviteSecretHash[:]) != 1 {
		e.failLocked("secret mismatch", "bad_code")
		return nil, errSecretMismatch()
	}
	if e.invite.ExpiresAt <= uint64(e.now().Unix()) {
		e.failLocked("invite expired", "expired")
		return nil, errInviteExpired()
	}

	var nonceUserID [32]byte
	if _, err := rand.Read(nonceUserID[:]); err != nil {
		return nil, err
	}

	signPub := e.self.SignPub()
	var opSignPub [32]byte
	copy(opSignPub[:], signPub)
	var opKexPub [32]byte
	copy(opKexPub[:], e.self.KexPub())

	req := &PairRequest{
		UserID:          nonceUserID,
		OperatorSignPub: opSignPub,
		OperatorKexPub:  opKexPub,
		DeviceID:        e.invite.DeviceID,
		RequestedPerms:  requestedPerms,
		CreatedAt:       uint64(e.now().Unix()),
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(req.proofInput())
	copy(req.InviteProof[:], mac.Sum(nil))

	e.secret = append([]byte(nil), secret...)
	e.request = req
	e.state = StateRequestSent
	return req, nil
}

// HandleReceipt verifies the device's signed receipt and derives the SAS
// both sides will compare out of band (spec §4.3).
func (e *Engine) HandleReceipt(receipt *PairReceipt) (string, error) {
	start := time.Now()
	defer func() {
		metrics.PairingDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if receipt == nil {
		return "", errNilReceipt
	}
	if e.state != StateRequestSent {
		return "", errWrongState(e.state.String(), StateRequestSent.String())
	}
	if err := e.checkDeadline(); err != nil {
		return "", err
	}

	ourID := e.self.ID32()
	if receipt.OperatorID != ourID {
		e.failLocked("receipt operator id mismatch", "rejected")
		return "", errSignatureInvalid()
	}
	if receipt.DeviceID != e.invite.DeviceID {
		e.failLocked("receipt device id mismatch", "rejected")
		return "", errSignatureInvalid()
	}

	digest := sha256.Sum256(receipt.signableFields())
	if !ed25519.Verify(e.invite.DeviceSignPub[:], digest[:], receipt.DeviceSignature[:]) {
		e.failLocked("signature invalid", "rejected")
		return "", errSignatureInvalid()
	}

	tr := transcript.New("zrc/pairing/sas/v1")
	tr.AppendBytes(1, e.request.signableFields())
	tr.AppendBytes(2, e.request.OperatorSignPub[:])
	tr.AppendBytes(3, e.invite.DeviceSignPub[:])
	tr.AppendBytes(4, wire.NewEncoder().U64(e.request.CreatedAt).Finish())
	tr.AppendBytes(5, wire.NewEncoder().U64(uint64(e.now().Unix())).Finish())

	sas := transcript.SAS6(tr.Finalize())

	e.receipt = receipt
	e.sas = sas
	e.state = StateAwaitingSAS
	return sas, nil
}

// ConfirmSAS completes the pairing once the operator has verbally
// compared the SAS with the device's own derivation.
func (e *Engine) ConfirmSAS() (*Record, error) {
	start := time.Now()
	defer func() {
		metrics.PairingDuration.WithLabelValues("store").Observe(time.Since(start).Seconds())
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateAwaitingSAS {
		return nil, errWrongState(e.state.String(), StateAwaitingSAS.String())
	}
	if err := e.checkDeadline(); err != nil {
		return nil, err
	}
	if e.receipt.GrantedPerms == 0 {
		e.failLocked("no permissions", "rejected")
		return nil, errNoPermissions()
	}

	rec := &Record{
		DeviceID:        e.invite.DeviceID,
		OperatorID:      e.self.ID32(),
		DeviceSignPub:   e.invite.DeviceSignPub,
		OperatorSignPub: e.request.OperatorSignPub,
		OperatorKexPub:  e.request.OperatorKexPub,
		GrantedPerms:    e.receipt.GrantedPerms,
		PairedAt:        uint64(e.now().Unix()),
	}

	e.pairedDeviceID = rec.DeviceID
	e.pairedPerms = rec.GrantedPerms
	e.state = StatePaired
	e.deadline = time.Time{}
	zero(e.secret)
	e.secret = nil
	metrics.PairingAttempts.WithLabelValues("completed").Inc()
	return rec, nil
}

// RejectSAS transitions to Failed{"user"} — the operator read the SAS
// aloud and it did not match.
func (e *Engine) RejectSAS() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failLocked("user", "rejected")
}

// Cancel aborts an in-progress attempt, as from an external cancellation
// request (spec §5); idempotent.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateFailed || e.state == StateIdle {
		return
	}
	e.failLocked("cancelled", "rejected")
}

// FailReason returns the reason recorded when the engine transitioned to
// Failed, or "" if it is not in that state.
func (e *Engine) FailReason() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateFailed {
		return ""
	}
	return e.failReason
}

// SAS returns the derived SAS string once AwaitingSAS has been reached.
func (e *Engine) SAS() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sas
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

var errNilReceipt = errors.New("pairing: nil receipt")
