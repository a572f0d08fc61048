// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package orientation

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/num/quat"
)

// Params tunes a Filter. The JSON names are the ones accepted from
// WebSocket clients.
type Params struct {
	// Kp is the proportional gain of the accelerometer correction.
	Kp float64 `json:"kp"`
	// Ki is the integral gain of the accelerometer correction.
	Ki float64 `json:"ki"`
	// GyroThresh is the angular rate in rad/s below which a sample may be
	// still.
	GyroThresh float64 `json:"gyro_thresh"`
	// AccThresh is the relative deviation from 1g below which a sample may
	// be still.
	AccThresh float64 `json:"acc_g_thresh"`
	// BiasAlpha is the weight of a still sample in the gyroscope bias
	// average.
	BiasAlpha float64 `json:"bias_alpha"`
	// DynamicKp scales Kp by 0.1+0.9*Trust so that linear acceleration
	// disturbs the estimate less.
	DynamicKp bool `json:"use_dyn_kp"`
}

// DefaultParams are tuned for an MPU-6050 polled at about 100Hz.
var DefaultParams = Params{
	Kp:         0.5,
	Ki:         0.001,
	GyroThresh: 0.02,
	AccThresh:  0.06,
	BiasAlpha:  0.002,
	DynamicKp:  true,
}

// StillHold is the number of consecutive still samples after which the
// sensor is considered stationary and the bias is updated.
const StillHold = 30

// Estimate is the filter output for one sample.
type Estimate struct {
	Q     [4]float64 `json:"q"` // W, X, Y, Z
	Euler Pose       `json:"euler"`
	// Gyro is the angular velocity with the bias removed, in rad/s.
	Gyro       [3]float64 `json:"gyr"`
	Bias       [3]float64 `json:"bias"`
	Trust      float64    `json:"trust"`
	Stationary bool       `json:"stationary"`
}

// Filter is a Mahony attitude filter with gyroscope bias tracking.
//
// It is safe for concurrent use; SetParams may be called while another
// goroutine calls Update.
type Filter struct {
	mu       sync.Mutex
	p        Params
	q        quat.Number
	integral [3]float64
	bias     [3]float64
	still    int
}

// NewFilter returns a Filter starting at attitude q0 with gyroscope bias
// bias in rad/s.
func NewFilter(q0 quat.Number, bias [3]float64, p Params) *Filter {
	return &Filter{p: p, q: normalize(q0), bias: bias}
}

// Params returns the current tuning.
func (f *Filter) Params() Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.p
}

// SetParams replaces the tuning. It takes effect on the next Update.
func (f *Filter) SetParams(p Params) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.p = p
}

// Bias returns the gyroscope bias estimate in rad/s.
func (f *Filter) Bias() [3]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bias
}

// Update advances the estimate by dt seconds with angular velocity gyr in
// rad/s and acceleration acc in m/s².
func (f *Filter) Update(gyr, acc [3]float64, dt float64) Estimate {
	f.mu.Lock()
	defer f.mu.Unlock()

	var g [3]float64
	for i := range g {
		g[i] = gyr[i] - f.bias[i]
	}
	trust := Trust(acc)
	kp := f.p.Kp
	if f.p.DynamicKp {
		kp *= 0.1 + 0.9*trust
	}

	if Still(g, acc, f.p.GyroThresh, f.p.AccThresh) {
		f.still++
	} else {
		f.still = 0
	}
	stationary := f.still >= StillHold
	if stationary {
		a := f.p.BiasAlpha
		for i := range f.bias {
			f.bias[i] = (1-a)*f.bias[i] + a*gyr[i]
		}
	}

	f.step(g, acc, kp, f.p.Ki, dt)
	return Estimate{
		Q:          [4]float64{f.q.Real, f.q.Imag, f.q.Jmag, f.q.Kmag},
		Euler:      Euler(f.q),
		Gyro:       g,
		Bias:       f.bias,
		Trust:      trust,
		Stationary: stationary,
	}
}

// step integrates one Mahony update. A null angular rate leaves the
// attitude untouched.
func (f *Filter) step(gyr, acc [3]float64, kp, ki, dt float64) {
	if norm(gyr) == 0 {
		return
	}
	omega := gyr
	if n := norm(acc); n > 0 {
		q := f.q
		// Gravity direction in the sensor frame.
		v := [3]float64{
			2 * (q.Imag*q.Kmag - q.Real*q.Jmag),
			2 * (q.Real*q.Imag + q.Jmag*q.Kmag),
			q.Real*q.Real - q.Imag*q.Imag - q.Jmag*q.Jmag + q.Kmag*q.Kmag,
		}
		a := [3]float64{acc[0] / n, acc[1] / n, acc[2] / n}
		e := cross(a, v)
		for i := range omega {
			f.integral[i] -= ki * e[i] * dt
			omega[i] = omega[i] - f.integral[i] + kp*e[i]
		}
	}
	p := quat.Number{Imag: omega[0], Jmag: omega[1], Kmag: omega[2]}
	dq := quat.Scale(0.5*dt, quat.Mul(f.q, p))
	f.q = normalize(quat.Add(f.q, dq))
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(v [3]float64) float64 {
	return floats.Norm(v[:], 2)
}
