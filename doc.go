// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package motion is a container for the MPU-6050 inertial sensor driver and
// the tools built on it.
//
// The driver lives in mpu6050. meter and imuview render samples on a
// terminal or a display.Drawer, publish sends them over MQTT or WebSocket,
// and cmd/mpu6050 ties them together.
package motion
