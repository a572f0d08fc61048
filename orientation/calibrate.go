// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package orientation

import (
	"context"
	"errors"
	"time"

	"github.com/GermanBionicSystems/motion/mpu6050"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/stat"
)

// Sampler is implemented by *mpu6050.Dev.
type Sampler interface {
	Sense() (mpu6050.Sample, error)
}

// MaxInitialBias is the largest gyroscope bias norm, in rad/s, accepted from
// a calibration. A larger mean means the sensor moved and the bias starts
// at zero instead.
const MaxInitialBias = 0.1

// ErrNoSamples is returned when a calibration could not read any sample.
var ErrNoSamples = errors.New("orientation: no sample to calibrate from")

// Calibrate reads src every interval for d, with the sensor at rest, and
// returns a Filter starting from the mean tilt and the mean angular rate as
// gyroscope bias.
//
// Failed reads are skipped. ctx cancels the calibration.
func Calibrate(ctx context.Context, src Sampler, d, interval time.Duration, p Params) (*Filter, error) {
	var samples []mpu6050.Sample
	t := time.NewTicker(interval)
	defer t.Stop()
	end := time.After(d)
loop:
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-end:
			break loop
		case <-t.C:
			if s, err := src.Sense(); err == nil {
				samples = append(samples, s)
			}
		}
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	return FromSamples(samples, p), nil
}

// FromSamples returns a Filter initialized from samples taken at rest. With
// no sample it starts level and without bias.
func FromSamples(samples []mpu6050.Sample, p Params) *Filter {
	if len(samples) == 0 {
		return NewFilter(quat.Number{Real: 1}, [3]float64{}, p)
	}
	var acc, gyr [3][]float64
	for _, s := range samples {
		a, g := s.Acceleration(), s.AngularVelocity()
		for i := 0; i < 3; i++ {
			acc[i] = append(acc[i], a[i])
			gyr[i] = append(gyr[i], g[i])
		}
	}
	var am, bias [3]float64
	for i := 0; i < 3; i++ {
		am[i] = stat.Mean(acc[i], nil)
		bias[i] = stat.Mean(gyr[i], nil)
	}
	if norm(bias) > MaxInitialBias {
		bias = [3]float64{}
	}
	return NewFilter(QuatFromAccel(am[0], am[1], am[2]), bias, p)
}
