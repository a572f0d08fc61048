// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu6050

import "fmt"

// ChannelType is the quantity measured by a channel.
type ChannelType int

const (
	Accel ChannelType = iota
	AngularVelocity
)

func (t ChannelType) String() string {
	switch t {
	case Accel:
		return "accel"
	case AngularVelocity:
		return "anglvel"
	default:
		return fmt.Sprintf("ChannelType(%d)", int(t))
	}
}

// Axis is a measurement axis.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Channel is one measurement channel. Reg is the address of its high byte;
// the low byte follows at Reg+1.
type Channel struct {
	Type ChannelType
	Axis Axis
	Reg  byte
}

func (c Channel) String() string {
	return fmt.Sprintf("%s_%s", c.Type, c.Axis)
}

// channels is indexed by 3*type+axis.
var channels = [...]Channel{
	{Type: Accel, Axis: X, Reg: regAccelXoutH},
	{Type: Accel, Axis: Y, Reg: regAccelXoutH + 2},
	{Type: Accel, Axis: Z, Reg: regAccelXoutH + 4},
	{Type: AngularVelocity, Axis: X, Reg: regGyroXoutH},
	{Type: AngularVelocity, Axis: Y, Reg: regGyroXoutH + 2},
	{Type: AngularVelocity, Axis: Z, Reg: regGyroXoutH + 4},
}

// Channels returns the six channels: accelerometer X, Y, Z then gyroscope
// X, Y, Z.
func Channels() []Channel {
	return append([]Channel(nil), channels[:]...)
}

// ChannelFor returns the channel measuring t along axis.
func ChannelFor(t ChannelType, axis Axis) (Channel, error) {
	if t < Accel || t > AngularVelocity || axis < X || axis > Z {
		return Channel{}, invalidf("no channel %s_%s", t, axis)
	}
	return channels[3*int(t)+int(axis)], nil
}

// DecodeRaw combines the high and low data bytes into a signed 16 bit
// value.
func DecodeRaw(hi, lo byte) int16 {
	return int16(uint16(hi)<<8 | uint16(lo))
}

// validChannel reports whether c is one of the six static channels.
func validChannel(c Channel) bool {
	ch, err := ChannelFor(c.Type, c.Axis)
	return err == nil && ch == c
}
