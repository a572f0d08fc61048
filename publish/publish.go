// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package publish polls an MPU-6050 at a fixed interval and fans the
// readings out to network sinks.
package publish

import (
	"context"
	"errors"
	"time"

	"github.com/GermanBionicSystems/motion/mpu6050"
	"github.com/GermanBionicSystems/motion/orientation"
)

// Sampler is implemented by *mpu6050.Dev.
type Sampler interface {
	Sense() (mpu6050.Sample, error)
}

// Sink receives every reading taken by a Poller.
type Sink interface {
	Send(r Reading) error
}

// Reading is a Sample as published on the wire.
type Reading struct {
	Time       time.Time  `json:"time"`
	Accel      [3]float64 `json:"accel"` // m/s²
	Gyro       [3]float64 `json:"gyro"`  // rad/s
	AccelRaw   [3]int16   `json:"accel_raw"`
	GyroRaw    [3]int16   `json:"gyro_raw"`
	AccelScale string     `json:"accel_scale"`
	GyroScale  string     `json:"gyro_scale"`
	// FPS is the rate of successful reads over the last second.
	FPS float64 `json:"fps"`
	// Orientation is set when the Poller has a Filter.
	Orientation *orientation.Estimate `json:"orientation,omitempty"`
}

// NewReading converts s taken at t.
func NewReading(t time.Time, s mpu6050.Sample) Reading {
	return Reading{
		Time:       t.UTC(),
		Accel:      s.Acceleration(),
		Gyro:       s.AngularVelocity(),
		AccelRaw:   s.Accel,
		GyroRaw:    s.Gyro,
		AccelScale: s.AccelScale.String(),
		GyroScale:  s.GyroScale.String(),
	}
}

// Poller reads Source every Interval and sends the result to every sink.
type Poller struct {
	Source   Sampler
	Interval time.Duration
	Sinks    []Sink
	// Filter, when set, is updated with every sample and its estimate is
	// attached to the readings.
	Filter *orientation.Filter
	// Debug receives read and send failures. nil discards them.
	Debug mpu6050.DebugF
}

// Run polls until ctx is done and then returns ctx.Err().
//
// A failed read skips the tick. A failed send is reported and the remaining
// sinks still receive the reading.
func (p *Poller) Run(ctx context.Context) error {
	if p.Source == nil {
		return errors.New("publish: no source")
	}
	if p.Interval <= 0 {
		return errors.New("publish: interval must be positive")
	}
	debug := p.Debug
	if debug == nil {
		debug = func(string, ...interface{}) {}
	}
	t := time.NewTicker(p.Interval)
	defer t.Stop()
	var last, window time.Time
	var reads int
	var fps float64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			s, err := p.Source.Sense()
			if err != nil {
				debug("publish: read failed: %v", err)
				continue
			}
			if window.IsZero() {
				window = now
			}
			reads++
			if d := now.Sub(window); d >= time.Second {
				fps = float64(reads) / d.Seconds()
				reads = 0
				window = now
			}
			r := NewReading(now, s)
			r.FPS = fps
			if p.Filter != nil {
				e := p.Filter.Update(s.AngularVelocity(), s.Acceleration(), p.step(last, now))
				r.Orientation = &e
			}
			last = now
			for _, sink := range p.Sinks {
				if err := sink.Send(r); err != nil {
					debug("publish: %v", err)
				}
			}
		}
	}
}

// step returns the time elapsed since the previous sample in seconds. The
// first sample and gaps longer than ten intervals count as one interval.
func (p *Poller) step(last, now time.Time) float64 {
	d := now.Sub(last)
	if last.IsZero() || d <= 0 || d > 10*p.Interval {
		d = p.Interval
	}
	return d.Seconds()
}
