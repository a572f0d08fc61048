// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu6050

import "fmt"

// Scale is the physical value of one LSB of a raw reading, as Int plus
// Micro millionths. Int is always 0 for this chip.
//
// Accelerometer scales are in m/s², gyroscope scales in rad/s.
type Scale struct {
	Index int // FS_SEL value selecting this scale.
	Int   int
	Micro int
}

// Float64 returns the scale as a single number.
func (s Scale) Float64() float64 {
	return float64(s.Int) + float64(s.Micro)/1e6
}

func (s Scale) String() string {
	return fmt.Sprintf("%d.%06d", s.Int, s.Micro)
}

// Ordered narrowest to widest range; the index is the FS_SEL value.
var (
	// ±2g, ±4g, ±8g, ±16g: 9.80665/16384 ... 9.80665/2048.
	accelScales = [...]Scale{
		{Index: 0, Micro: 599},
		{Index: 1, Micro: 1197},
		{Index: 2, Micro: 2394},
		{Index: 3, Micro: 4788},
	}
	// ±250, ±500, ±1000, ±2000 °/s: (π/180)/131 ... (π/180)/16.4.
	gyroScales = [...]Scale{
		{Index: 0, Micro: 133},
		{Index: 1, Micro: 266},
		{Index: 2, Micro: 533},
		{Index: 3, Micro: 1065},
	}
)

func scaleTable(t ChannelType) ([]Scale, error) {
	switch t {
	case Accel:
		return accelScales[:], nil
	case AngularVelocity:
		return gyroScales[:], nil
	default:
		return nil, invalidf("unknown channel type %d", t)
	}
}

// LookupScale returns the scale selected by FS_SEL index i for t.
func LookupScale(t ChannelType, i int) (Scale, error) {
	table, err := scaleTable(t)
	if err != nil {
		return Scale{}, err
	}
	if i < 0 || i >= len(table) {
		return Scale{}, invalidf("%s scale index %d out of range [0, %d]", t, i, len(table)-1)
	}
	return table[i], nil
}

// FindScale returns the FS_SEL index of the scale int.micro for t.
//
// Only exact table values are accepted.
func FindScale(t ChannelType, integer, micro int) (int, error) {
	if integer != 0 {
		return 0, invalidf("%s scale integer part must be 0, got %d", t, integer)
	}
	table, err := scaleTable(t)
	if err != nil {
		return 0, err
	}
	for _, s := range table {
		if s.Int == integer && s.Micro == micro {
			return s.Index, nil
		}
	}
	return 0, invalidf("%s scale %d.%06d is not supported", t, integer, micro)
}

// AvailableScales returns the supported scales for t, narrowest range first.
func AvailableScales(t ChannelType) []Scale {
	table, err := scaleTable(t)
	if err != nil {
		return nil
	}
	return append([]Scale(nil), table...)
}
