// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mpu6050 controls an InvenSense MPU-6050 (I²C) or MPU-6000 (SPI)
// 6-axis accelerometer and gyroscope.
//
// The driver only needs single byte register access, described by
// Transport. I2CTransport and SPITransport are provided; any other bus can
// be used by implementing the three Transport methods.
//
// New checks WHO_AM_I, wakes the chip on the X gyroscope PLL, sets the
// low-pass filter for a 1kHz base rate, then applies the sample rate and
// full scale ranges from Opts. Readings are synchronous: there is no FIFO,
// interrupt or buffered capture support.
//
// Scales are reported the way Linux IIO does, as an integer part plus
// millionths, in m/s² and rad/s per LSB.
//
// # Datasheet
//
// https://invensense.tdk.com/wp-content/uploads/2015/02/MPU-6000-Datasheet1.pdf
//
// https://invensense.tdk.com/wp-content/uploads/2015/02/MPU-6000-Register-Map1.pdf
package mpu6050
