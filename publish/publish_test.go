// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GermanBionicSystems/motion/mpu6050"
	"github.com/GermanBionicSystems/motion/orientation"
	"gonum.org/v1/gonum/num/quat"
)

func testSample(t *testing.T) mpu6050.Sample {
	a, err := mpu6050.LookupScale(mpu6050.Accel, 0)
	if err != nil {
		t.Fatal(err)
	}
	g, err := mpu6050.LookupScale(mpu6050.AngularVelocity, 0)
	if err != nil {
		t.Fatal(err)
	}
	return mpu6050.Sample{
		Accel:      [3]int16{0, 0, 16384},
		Gyro:       [3]int16{131, -131, 0},
		AccelScale: a,
		GyroScale:  g,
	}
}

func TestNewReading(t *testing.T) {
	now := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewReading(now, testSample(t))
	if r.AccelRaw[2] != 16384 || r.GyroRaw[1] != -131 {
		t.Fatalf("raw: %+v", r)
	}
	if z := r.Accel[2]; z < 9.8 || z > 9.82 {
		t.Fatalf("accel z = %f", z)
	}
	if r.AccelScale != "0.000599" || r.GyroScale != "0.000133" {
		t.Fatalf("scales: %q %q", r.AccelScale, r.GyroScale)
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"time", "accel", "gyro", "accel_raw", "gyro_raw", "accel_scale", "gyro_scale"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing %q in %s", k, b)
		}
	}
	if m["time"] != "2020-01-02T03:04:05Z" {
		t.Fatalf("time = %v", m["time"])
	}
}

type fakeSampler struct {
	mu    sync.Mutex
	calls int
	s     mpu6050.Sample
}

// Sense fails every other call.
func (f *fakeSampler) Sense() (mpu6050.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls%2 == 0 {
		return mpu6050.Sample{}, errors.New("bus error")
	}
	return f.s, nil
}

type chanSink struct {
	c   chan Reading
	err error
}

func (c *chanSink) Send(r Reading) error {
	select {
	case c.c <- r:
	default:
	}
	return c.err
}

func TestPoller(t *testing.T) {
	src := &fakeSampler{s: testSample(t)}
	failing := &chanSink{c: make(chan Reading, 16), err: errors.New("broker down")}
	ok := &chanSink{c: make(chan Reading, 16)}
	var mu sync.Mutex
	var logs []string
	p := Poller{
		Source:   src,
		Interval: time.Millisecond,
		Sinks:    []Sink{failing, ok},
		Debug: func(format string, a ...interface{}) {
			mu.Lock()
			logs = append(logs, format)
			mu.Unlock()
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()
	for i := 0; i < 3; i++ {
		select {
		case r := <-ok.c:
			if r.AccelRaw[2] != 16384 {
				t.Fatalf("unexpected reading %+v", r)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("no reading")
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v", err)
	}
	if len(failing.c) == 0 {
		t.Fatal("failing sink never received")
	}
	mu.Lock()
	defer mu.Unlock()
	var reads, sends int
	for _, l := range logs {
		switch l {
		case "publish: read failed: %v":
			reads++
		case "publish: %v":
			sends++
		}
	}
	if reads == 0 || sends == 0 {
		t.Fatalf("logs = %q", logs)
	}
}

func TestPoller_invalid(t *testing.T) {
	if err := (&Poller{Interval: time.Second}).Run(context.Background()); err == nil {
		t.Fatal("expected error without source")
	}
	if err := (&Poller{Source: &fakeSampler{}}).Run(context.Background()); err == nil {
		t.Fatal("expected error without interval")
	}
}

type steadySampler struct{ s mpu6050.Sample }

func (f *steadySampler) Sense() (mpu6050.Sample, error) { return f.s, nil }

func TestPoller_orientation(t *testing.T) {
	s := testSample(t)
	s.Gyro = [3]int16{}
	f := orientation.NewFilter(quat.Number{Real: 1}, [3]float64{}, orientation.DefaultParams)
	out := &chanSink{c: make(chan Reading, 64)}
	p := Poller{Source: &steadySampler{s: s}, Interval: time.Millisecond, Sinks: []Sink{out}, Filter: f}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()
	var r Reading
	for i := 0; i < orientation.StillHold; i++ {
		select {
		case r = <-out.c:
		case <-time.After(5 * time.Second):
			t.Fatal("no reading")
		}
		if r.Orientation == nil {
			t.Fatal("no orientation")
		}
	}
	cancel()
	<-done
	if !r.Orientation.Stationary {
		t.Fatalf("level and still for %d samples: %+v", orientation.StillHold, r.Orientation)
	}
	if r.Orientation.Q != [4]float64{1, 0, 0, 0} || r.Orientation.Trust < 0.99 {
		t.Fatalf("%+v", r.Orientation)
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{`"orientation":`, `"q":`, `"euler":`, `"stationary":true`, `"fps":`} {
		if !strings.Contains(string(b), k) {
			t.Fatalf("missing %s in %s", k, b)
		}
	}
}

func TestPollerStep(t *testing.T) {
	p := Poller{Interval: 10 * time.Millisecond}
	now := time.Unix(100, 0)
	data := []struct {
		last time.Time
		want float64
	}{
		{time.Time{}, 0.01},
		{now.Add(-20 * time.Millisecond), 0.02},
		{now.Add(-time.Second), 0.01},
		{now.Add(time.Millisecond), 0.01},
	}
	for i, line := range data {
		if got := p.step(line.last, now); got != line.want {
			t.Errorf("#%d: step() = %g, want %g", i, got, line.want)
		}
	}
}
