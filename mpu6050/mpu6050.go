// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu6050

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"
)

// State is the probe progress of a Dev.
type State int

const (
	Uninitialized State = iota
	IdentityVerified
	Configured
	Ready
	// Halted is entered by Halt and is terminal.
	Halted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case IdentityVerified:
		return "IdentityVerified"
	case Configured:
		return "Configured"
	case Ready:
		return "Ready"
	case Halted:
		return "Halted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Opts holds the configuration applied by the probe.
type Opts struct {
	// SampleRate is the output rate in Hz. 0 selects DefaultSampleRate.
	SampleRate int
	// AccelScale and GyroScale are FS_SEL indices, see AvailableScales.
	AccelScale int
	GyroScale  int
	// Modes arbitrates direct mode with a host capture. nil means direct
	// mode is always available.
	Modes ModeClaimer
	// Debug receives probe and state messages. nil disables them.
	Debug DebugF
}

// DefaultOpts configures 100Hz output, ±2g and ±250°/s.
var DefaultOpts = Opts{
	SampleRate: DefaultSampleRate,
	AccelScale: 0,
	GyroScale:  0,
}

// Dev is a handle to a probed MPU-6050.
//
// All methods are safe for concurrent use; register sequences are
// serialized by an internal lock.
type Dev struct {
	t     Transport
	modes ModeClaimer
	debug DebugF

	mu    sync.Mutex
	state State
}

// New probes the device behind t and configures it.
//
// The options are validated before the bus is touched. The chip identity is
// then checked and nothing is written unless it matches ChipID. Errors from
// t are returned as is; a failed probe leaves no Dev behind.
func New(t Transport, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	hz := opts.SampleRate
	if hz == 0 {
		hz = DefaultSampleRate
	}
	div, err := DivisorFromRate(hz)
	if err != nil {
		return nil, err
	}
	if _, err := LookupScale(Accel, opts.AccelScale); err != nil {
		return nil, err
	}
	if _, err := LookupScale(AngularVelocity, opts.GyroScale); err != nil {
		return nil, err
	}
	d := &Dev{t: t, modes: opts.Modes, debug: opts.Debug}
	if d.modes == nil {
		d.modes = alwaysDirect{}
	}
	if d.debug == nil {
		d.debug = noop
	}
	if err := d.probe(div, byte(opts.AccelScale), byte(opts.GyroScale)); err != nil {
		return nil, err
	}
	return d, nil
}

// NewI2C probes an MPU-6050 at addr on bus b.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	t := NewI2CTransport(b, addr)
	if opts != nil && opts.Debug != nil {
		t.EnableDebug(opts.Debug)
	}
	return New(t, opts)
}

// NewSPI probes an MPU-6000 on port p. cs may be nil, see NewSPITransport.
func NewSPI(p spi.Port, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	t, err := NewSPITransport(p, cs)
	if err != nil {
		return nil, err
	}
	if opts != nil && opts.Debug != nil {
		t.EnableDebug(opts.Debug)
	}
	return New(t, opts)
}

func (d *Dev) probe(div, accelFS, gyroFS byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := d.t.ReadReg(regWhoAmI)
	if err != nil {
		return err
	}
	if id != ChipID {
		return fmt.Errorf("%w: WHO_AM_I is %#x, expected %#x", ErrDeviceMismatch, id, ChipID)
	}
	d.setStateLocked(IdentityVerified)

	if err := d.t.WriteReg(regPwrMgmt1, pwrClockPLLX); err != nil {
		return err
	}
	if err := d.t.WriteReg(regConfig, configDLPF3); err != nil {
		return err
	}
	if err := d.t.WriteReg(regSmplrtDiv, div); err != nil {
		return err
	}
	if err := d.t.UpdateBits(regAccelConfig, fsSelMask, accelFS<<fsSelShift); err != nil {
		return err
	}
	if err := d.t.UpdateBits(regGyroConfig, fsSelMask, gyroFS<<fsSelShift); err != nil {
		return err
	}
	d.setStateLocked(Configured)
	d.setStateLocked(Ready)
	return nil
}

func (d *Dev) setStateLocked(s State) {
	d.debug("mpu6050: %s -> %s", d.state, s)
	d.state = s
}

// State returns the current state.
func (d *Dev) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dev) String() string {
	if s, ok := d.t.(fmt.Stringer); ok {
		return fmt.Sprintf("MPU6050{%s}", s)
	}
	return "MPU6050"
}

// claim takes direct mode. The returned function releases it. A refusal is
// always reported as ErrBusy.
func (d *Dev) claim() (func(), error) {
	if err := d.modes.ClaimDirect(); err != nil {
		if errors.Is(err, ErrBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	return d.modes.ReleaseDirect, nil
}

// lockReady acquires the lock if the device is Ready. On success the caller
// must unlock d.mu.
func (d *Dev) lockReady() error {
	d.mu.Lock()
	if d.state != Ready {
		s := d.state
		d.mu.Unlock()
		return fmt.Errorf("%w: state is %s", ErrNotReady, s)
	}
	return nil
}

// ReadRaw returns the current raw count of channel c.
func (d *Dev) ReadRaw(c Channel) (int16, error) {
	if !validChannel(c) {
		return 0, invalidf("unknown channel %v", c)
	}
	release, err := d.claim()
	if err != nil {
		return 0, err
	}
	defer release()
	if err := d.lockReady(); err != nil {
		return 0, err
	}
	defer d.mu.Unlock()
	return d.readRawLocked(c.Reg)
}

func (d *Dev) readRawLocked(reg byte) (int16, error) {
	hi, err := d.t.ReadReg(reg)
	if err != nil {
		return 0, err
	}
	lo, err := d.t.ReadReg(reg + 1)
	if err != nil {
		return 0, err
	}
	return DecodeRaw(hi, lo), nil
}

func configReg(t ChannelType) (byte, error) {
	switch t {
	case Accel:
		return regAccelConfig, nil
	case AngularVelocity:
		return regGyroConfig, nil
	default:
		return 0, invalidf("unknown channel type %d", t)
	}
}

// Scale returns the active scale of t.
func (d *Dev) Scale(t ChannelType) (Scale, error) {
	reg, err := configReg(t)
	if err != nil {
		return Scale{}, err
	}
	if err := d.lockReady(); err != nil {
		return Scale{}, err
	}
	defer d.mu.Unlock()
	return d.scaleLocked(t, reg)
}

func (d *Dev) scaleLocked(t ChannelType, reg byte) (Scale, error) {
	v, err := d.t.ReadReg(reg)
	if err != nil {
		return Scale{}, err
	}
	return LookupScale(t, int((v&fsSelMask)>>fsSelShift))
}

// SetScale selects the scale integer.micro for t. The value must be one of
// AvailableScales(t).
func (d *Dev) SetScale(t ChannelType, integer, micro int) error {
	reg, err := configReg(t)
	if err != nil {
		return err
	}
	i, err := FindScale(t, integer, micro)
	if err != nil {
		return err
	}
	release, err := d.claim()
	if err != nil {
		return err
	}
	defer release()
	if err := d.lockReady(); err != nil {
		return err
	}
	defer d.mu.Unlock()
	return d.t.UpdateBits(reg, fsSelMask, byte(i)<<fsSelShift)
}

// SampleRate returns the output sample rate in Hz.
func (d *Dev) SampleRate() (int, error) {
	if err := d.lockReady(); err != nil {
		return 0, err
	}
	defer d.mu.Unlock()
	div, err := d.t.ReadReg(regSmplrtDiv)
	if err != nil {
		return 0, err
	}
	return RateFromDivisor(div), nil
}

// SetSampleRate sets the output sample rate. hz must divide BaseRate, see
// DivisorFromRate.
func (d *Dev) SetSampleRate(hz int) error {
	div, err := DivisorFromRate(hz)
	if err != nil {
		return err
	}
	release, err := d.claim()
	if err != nil {
		return err
	}
	defer release()
	if err := d.lockReady(); err != nil {
		return err
	}
	defer d.mu.Unlock()
	return d.t.WriteReg(regSmplrtDiv, div)
}

// AvailableScales returns the scales supported for t.
func (d *Dev) AvailableScales(t ChannelType) []Scale {
	return AvailableScales(t)
}

// AvailableRates returns the advertised sample rates in Hz.
func (d *Dev) AvailableRates() []int {
	return AvailableRates()
}

// Sample is one reading of all six channels with the scales in effect.
type Sample struct {
	Accel      [3]int16 // Raw X, Y, Z counts.
	Gyro       [3]int16 // Raw X, Y, Z counts.
	AccelScale Scale
	GyroScale  Scale
}

// Acceleration returns X, Y, Z in m/s².
func (s Sample) Acceleration() [3]float64 {
	return scaled(s.Accel, s.AccelScale)
}

// AngularVelocity returns X, Y, Z in rad/s.
func (s Sample) AngularVelocity() [3]float64 {
	return scaled(s.Gyro, s.GyroScale)
}

func (s Sample) String() string {
	a := s.Acceleration()
	g := s.AngularVelocity()
	return fmt.Sprintf("accel=[%.3f %.3f %.3f]m/s² gyro=[%.4f %.4f %.4f]rad/s", a[0], a[1], a[2], g[0], g[1], g[2])
}

func scaled(raw [3]int16, s Scale) [3]float64 {
	f := s.Float64()
	return [3]float64{float64(raw[0]) * f, float64(raw[1]) * f, float64(raw[2]) * f}
}

// Sense reads all six channels and both scales in one locked sequence.
func (d *Dev) Sense() (Sample, error) {
	var s Sample
	release, err := d.claim()
	if err != nil {
		return s, err
	}
	defer release()
	if err := d.lockReady(); err != nil {
		return s, err
	}
	defer d.mu.Unlock()

	if s.AccelScale, err = d.scaleLocked(Accel, regAccelConfig); err != nil {
		return s, err
	}
	if s.GyroScale, err = d.scaleLocked(AngularVelocity, regGyroConfig); err != nil {
		return s, err
	}
	for _, c := range channels {
		v, err := d.readRawLocked(c.Reg)
		if err != nil {
			return s, err
		}
		if c.Type == Accel {
			s.Accel[c.Axis] = v
		} else {
			s.Gyro[c.Axis] = v
		}
	}
	return s, nil
}

// Halt implements conn.Resource.
//
// It puts the chip to sleep. The Dev can't be used afterward.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Ready {
		return nil
	}
	if err := d.t.UpdateBits(regPwrMgmt1, pwrSleep, pwrSleep); err != nil {
		return err
	}
	d.setStateLocked(Halted)
	return nil
}

var _ conn.Resource = &Dev{}
