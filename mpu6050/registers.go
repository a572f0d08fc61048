// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu6050

// Register map.
const (
	regSmplrtDiv   byte = 0x19 // Sample rate divider
	regConfig      byte = 0x1A // DLPF configuration
	regGyroConfig  byte = 0x1B // Gyroscope FS_SEL in bits [4:3]
	regAccelConfig byte = 0x1C // Accelerometer AFS_SEL in bits [4:3]
	regAccelXoutH  byte = 0x3B // First of 6 accelerometer data bytes
	regGyroXoutH   byte = 0x43 // First of 6 gyroscope data bytes
	regPwrMgmt1    byte = 0x6B // Power management and clock source
	regWhoAmI      byte = 0x75 // Identity, reads ChipID
)

const (
	// ChipID is the value WHO_AM_I returns on an MPU-6050.
	ChipID byte = 0x68

	// DefaultI2CAddress is used when AD0 is tied low. AlternateI2CAddress is
	// used when AD0 is tied high.
	DefaultI2CAddress   uint16 = 0x68
	AlternateI2CAddress uint16 = 0x69

	// BaseRate is the internal sample rate in Hz with the low-pass filter
	// enabled.
	BaseRate = 1000

	fsSelMask  byte = 0x18
	fsSelShift      = 3

	// PWR_MGMT_1: awake, PLL with X axis gyroscope reference.
	pwrClockPLLX byte = 0x01
	pwrSleep     byte = 0x40

	// CONFIG: DLPF_CFG=3, 44Hz accel / 42Hz gyro bandwidth, 1kHz base rate.
	configDLPF3 byte = 0x03
)
