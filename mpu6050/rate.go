// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu6050

// Only exact divisors of BaseRate are offered.
var sampleRates = [...]int{10, 20, 25, 50, 100, 200, 250, 500, 1000}

// DefaultSampleRate is the output rate configured by the probe, in Hz.
const DefaultSampleRate = 100

// RateFromDivisor returns the output sample rate in Hz for a SMPLRT_DIV
// value.
func RateFromDivisor(div byte) int {
	return BaseRate / (1 + int(div))
}

// DivisorFromRate returns the SMPLRT_DIV value producing hz.
//
// hz must divide BaseRate exactly and the resulting divisor must fit in a
// byte; there is no rounding.
func DivisorFromRate(hz int) (byte, error) {
	if hz < 1 || hz > BaseRate {
		return 0, invalidf("sample rate %dHz out of range [1, %d]", hz, BaseRate)
	}
	if BaseRate%hz != 0 {
		return 0, invalidf("sample rate %dHz does not divide %dHz", hz, BaseRate)
	}
	div := BaseRate/hz - 1
	if div > 255 {
		return 0, invalidf("sample rate %dHz needs divisor %d > 255", hz, div)
	}
	return byte(div), nil
}

// AvailableRates returns the advertised sample rates in Hz, ascending.
func AvailableRates() []int {
	return append([]int(nil), sampleRates[:]...)
}
