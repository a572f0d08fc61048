// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu6050

import "sync"

// ModeClaimer arbitrates between direct (on-demand register) access and a
// buffered acquisition mode owned by the host framework.
//
// ClaimDirect must not block: it either grants direct mode or fails,
// typically with an error wrapping ErrBusy. Every successful ClaimDirect is
// paired with one ReleaseDirect.
type ModeClaimer interface {
	ClaimDirect() error
	ReleaseDirect()
}

// ModeGuard is a ModeClaimer for hosts that run their own capture loop.
//
// Any number of direct mode claims may be held at once; they exclude a
// capture and a capture excludes them.
type ModeGuard struct {
	mu      sync.Mutex
	direct  int
	capture bool
}

// ClaimDirect implements ModeClaimer.
func (g *ModeGuard) ClaimDirect() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.capture {
		return ErrBusy
	}
	g.direct++
	return nil
}

// ReleaseDirect implements ModeClaimer.
func (g *ModeGuard) ReleaseDirect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.direct > 0 {
		g.direct--
	}
}

// BeginCapture enters the buffered mode. It fails with ErrBusy while a
// direct mode claim or another capture is active.
func (g *ModeGuard) BeginCapture() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.capture || g.direct > 0 {
		return ErrBusy
	}
	g.capture = true
	return nil
}

// EndCapture leaves the buffered mode.
func (g *ModeGuard) EndCapture() {
	g.mu.Lock()
	g.capture = false
	g.mu.Unlock()
}

// alwaysDirect is used when Opts.Modes is nil.
type alwaysDirect struct{}

func (alwaysDirect) ClaimDirect() error { return nil }
func (alwaysDirect) ReleaseDirect()     {}

var _ ModeClaimer = &ModeGuard{}
