// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu6050

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DebugF the debug function type.
type DebugF func(string, ...interface{})

// Transport is the register access Dev needs from a bus binding.
//
// Every register is 8 bits wide. Each call maps to one bus transaction,
// except UpdateBits which is a read followed by a write. Implementations do
// not retry and return bus errors unmodified.
type Transport interface {
	// ReadReg returns the value of the register at addr.
	ReadReg(addr byte) (byte, error)
	// WriteReg sets the register at addr to value.
	WriteReg(addr, value byte) error
	// UpdateBits replaces the bits selected by mask with the same bits of
	// bits, leaving the others untouched.
	UpdateBits(addr, mask, bits byte) error
}

// I2CTransport carries register transactions over I²C.
type I2CTransport struct {
	d     *i2c.Dev
	debug DebugF
}

// NewI2CTransport returns a Transport talking to the device at address on
// bus.
func NewI2CTransport(bus i2c.Bus, address uint16) *I2CTransport {
	return &I2CTransport{d: &i2c.Dev{Bus: bus, Addr: address}, debug: noop}
}

// EnableDebug Sets the debugging output using the local print function.
func (t *I2CTransport) EnableDebug(f DebugF) {
	t.debug = f
}

// ReadReg implements Transport.
func (t *I2CTransport) ReadReg(addr byte) (byte, error) {
	var r [1]byte
	if err := t.d.Tx([]byte{addr}, r[:]); err != nil {
		return 0, err
	}
	t.debug("read register %#x value %#x", addr, r[0])
	return r[0], nil
}

// WriteReg implements Transport.
func (t *I2CTransport) WriteReg(addr, value byte) error {
	t.debug("write register %#x value %#x", addr, value)
	return t.d.Tx([]byte{addr, value}, nil)
}

// UpdateBits implements Transport.
func (t *I2CTransport) UpdateBits(addr, mask, bits byte) error {
	return updateBits(t, t.debug, addr, mask, bits)
}

func (t *I2CTransport) String() string {
	return t.d.String()
}

// SPITransport carries register transactions over SPI, as supported by the
// MPU-6000 variant of the chip.
type SPITransport struct {
	c     spi.Conn
	cs    gpio.PinOut
	debug DebugF
}

// SPI connection parameters. The register interface is specified up to
// 1MHz.
var (
	SPIFrequency = physic.MegaHertz
	SPIMode      = spi.Mode0
	SPIBits      = 8
)

// NewSPITransport creates the SPI transport on port p.
//
// cs is an optional chip select pin driven in software around each
// transfer; pass nil when the port handles chip select itself.
func NewSPITransport(p spi.Port, cs gpio.PinOut) (*SPITransport, error) {
	c, err := p.Connect(SPIFrequency, SPIMode, SPIBits)
	if err != nil {
		return nil, fmt.Errorf("mpu6050: can't initialize SPI: %w", err)
	}
	if cs != nil {
		if err := cs.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("mpu6050: can't initialize chip select: %w", err)
		}
	}
	return &SPITransport{c: c, cs: cs, debug: noop}, nil
}

// EnableDebug Sets the debugging output using the local print function.
func (t *SPITransport) EnableDebug(f DebugF) {
	t.debug = f
}

// ReadReg implements Transport.
func (t *SPITransport) ReadReg(addr byte) (byte, error) {
	var (
		buf = [...]byte{0x80 | addr, 0}
		res [2]byte
	)
	if err := t.tx(buf[:], res[:]); err != nil {
		return 0, err
	}
	t.debug("read register %#x value %#x", addr, res[1])
	return res[1], nil
}

// WriteReg implements Transport.
func (t *SPITransport) WriteReg(addr, value byte) error {
	t.debug("write register %#x value %#x", addr, value)
	var (
		buf = [...]byte{addr &^ 0x80, value}
		res [2]byte
	)
	return t.tx(buf[:], res[:])
}

// UpdateBits implements Transport.
func (t *SPITransport) UpdateBits(addr, mask, bits byte) error {
	return updateBits(t, t.debug, addr, mask, bits)
}

func (t *SPITransport) String() string {
	return t.c.String()
}

// tx runs one full duplex transfer. The chip select line is released even
// when the transfer fails.
func (t *SPITransport) tx(w, r []byte) error {
	if t.cs == nil {
		return t.c.Tx(w, r)
	}
	if err := t.cs.Out(gpio.Low); err != nil {
		return err
	}
	err := t.c.Tx(w, r)
	if errCS := t.cs.Out(gpio.High); err == nil {
		err = errCS
	}
	return err
}

func updateBits(t Transport, debug DebugF, addr, mask, bits byte) error {
	old, err := t.ReadReg(addr)
	if err != nil {
		return err
	}
	v := (old &^ mask) | (bits & mask)
	debug("update register %#x mask %#x: %#x -> %#x", addr, mask, old, v)
	return t.WriteReg(addr, v)
}

func noop(string, ...interface{}) {}

var _ Transport = &I2CTransport{}
var _ Transport = &SPITransport{}
