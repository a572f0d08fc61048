// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package meter draws MPU-6050 samples as a line of colored bar graphs on a
// terminal using ANSI color codes.
//
// Each of the six channels gets a bar centered on zero. The bar covers the
// full raw range of the channel, so its length does not depend on the
// selected scale.
package meter

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/motion/mpu6050"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for the meter.
type Opts struct {
	// Width is the number of cells per bar. It is rounded up to an even
	// number; 0 selects 16.
	Width int
	// W is where the meter is drawn. Defaults to a colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette

	_ struct{}
}

// Dev redraws one terminal line per sample.
type Dev struct {
	w       io.Writer
	half    int
	palette ansi256.Palette

	buf bytes.Buffer
}

var (
	positive = color.NRGBA{0x00, 0xD0, 0x40, 0xFF}
	negative = color.NRGBA{0xE0, 0x30, 0x20, 0xFF}
	empty    = color.NRGBA{0x30, 0x30, 0x30, 0xFF}
)

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	width := opts.Width
	if width <= 0 {
		width = 16
	}
	return &Dev{w: w, half: (width + 1) / 2, palette: *p}
}

func (d *Dev) String() string {
	return "Meter"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes and moves to the next line.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Display redraws the line with s.
func (d *Dev) Display(s mpu6050.Sample) error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	a := s.Acceleration()
	g := s.AngularVelocity()
	for i, axis := range []string{"x", "y", "z"} {
		d.bar(s.Accel[i])
		_, _ = fmt.Fprintf(&d.buf, "\033[0m a%s%+7.2f ", axis, a[i])
	}
	for i, axis := range []string{"x", "y", "z"} {
		d.bar(s.Gyro[i])
		_, _ = fmt.Fprintf(&d.buf, "\033[0m g%s%+6.2f ", axis, g[i])
	}
	_, _ = d.buf.WriteString("\033[0m")
	_, err := d.buf.WriteTo(d.w)
	return err
}

// bar appends 2*half cells: the left half fills right to left for negative
// values, the right half left to right for positive ones.
func (d *Dev) bar(raw int16) {
	n := cells(raw, d.half)
	for i := d.half; i > 0; i-- {
		c := empty
		if n < 0 && -n >= i {
			c = negative
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	for i := 1; i <= d.half; i++ {
		c := empty
		if n > 0 && n >= i {
			c = positive
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
}

// cells returns the signed number of lit cells for raw, rounding away from
// zero so that any non-zero reading lights at least one cell.
func cells(raw int16, half int) int {
	v := int(raw)
	if v == 0 {
		return 0
	}
	if v > 0 {
		return (v*half + 32766) / 32767
	}
	return -((-v*half + 32767) / 32768)
}
