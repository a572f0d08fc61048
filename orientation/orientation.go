// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package orientation estimates the attitude of an MPU-6050 from its
// samples.
//
// A Filter fuses the gyroscope and the accelerometer with a Mahony
// complementary filter. The accelerometer correction is weighted by how
// close the measured acceleration is to 1g, and the gyroscope bias is
// tracked while the sensor is still. Without a magnetometer the yaw drifts.
package orientation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// StandardGravity in m/s².
const StandardGravity = 9.80665

// Pose is an attitude as Tait-Bryan angles in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// PoseFromAccel returns the tilt measured by an accelerometer at rest. The
// unit of the vector doesn't matter. Yaw is always 0.
func PoseFromAccel(ax, ay, az float64) Pose {
	return Pose{
		Roll:  degrees(math.Atan2(ay, az)),
		Pitch: degrees(math.Atan2(-ax, math.Sqrt(ay*ay+az*az))),
	}
}

// QuatFromAccel returns the unit quaternion for PoseFromAccel(ax, ay, az).
func QuatFromAccel(ax, ay, az float64) quat.Number {
	roll := math.Atan2(ay, az)
	pitch := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	return normalize(quat.Number{
		Real: cr * cp,
		Imag: sr * cp,
		Jmag: cr * sp,
		Kmag: -sr * sp,
	})
}

// Euler converts a unit quaternion to a Pose.
func Euler(q quat.Number) Pose {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	sp := 2 * (w*y - z*x)
	if sp > 1 {
		sp = 1
	} else if sp < -1 {
		sp = -1
	}
	return Pose{
		Roll:  degrees(math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))),
		Pitch: degrees(math.Asin(sp)),
		Yaw:   degrees(math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))),
	}
}

// Trust is 1 when the norm of acc is exactly 1g and falls off as a
// gaussian of the relative deviation. It is 0 for a null vector.
func Trust(acc [3]float64) float64 {
	n := norm(acc)
	if n < 1e-6 {
		return 0
	}
	dev := math.Abs(n-StandardGravity) / StandardGravity / trustSigma
	return math.Exp(-dev * dev)
}

// Still reports whether a single sample looks motionless: the angular rate
// is below gyroThresh rad/s and the acceleration is within accThresh
// (relative) of 1g.
func Still(gyr, acc [3]float64, gyroThresh, accThresh float64) bool {
	n := norm(acc)
	if n < 1e-6 {
		return false
	}
	return norm(gyr) < gyroThresh && math.Abs(n-StandardGravity)/StandardGravity < accThresh
}

const trustSigma = 0.15

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
