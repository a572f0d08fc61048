// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu6050

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for an out-of-table scale, a sample rate
	// that does not divide the base rate, or a non-zero integer scale part.
	// It is always detected before the bus is touched.
	ErrInvalidArgument = errors.New("mpu6050: invalid argument")
	// ErrDeviceMismatch is returned by the probe when WHO_AM_I does not read
	// the expected chip ID.
	ErrDeviceMismatch = errors.New("mpu6050: unexpected device identity")
	// ErrBusy is returned when direct mode cannot be claimed because another
	// acquisition mode holds the device.
	ErrBusy = errors.New("mpu6050: device busy")
	// ErrNotReady is returned by runtime operations on a device that is not
	// in the Ready state, e.g. after Halt.
	ErrNotReady = errors.New("mpu6050: device not ready")
)

func invalidf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidArgument}, a...)...)
}
