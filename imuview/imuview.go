// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package imuview renders MPU-6050 samples for small displays.
//
// A View draws six rows, accelerometer X, Y, Z then gyroscope X, Y, Z. Each
// row has the value in SI units and a bar centered on zero covering the
// full raw range. Any display.Drawer works: an SSD1306 OLED, an e-ink panel
// or a videosink served over HTTP.
package imuview

import (
	"fmt"
	"image"
	"image/color"

	"github.com/GermanBionicSystems/motion/mpu6050"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"periph.io/x/conn/v3/display"
)

// Opts for a View.
type Opts struct {
	// FontSize in points at 72 DPI. 0 derives it from the display height.
	FontSize float64
	// Foreground and Background default to white on black, which maps to
	// lit pixels on monochrome OLEDs.
	Foreground color.Color
	Background color.Color
}

// View draws samples on a display.
type View struct {
	d    display.Drawer
	face font.Face
	fg   color.Color
	bg   color.Color
}

// New returns a View drawing on d.
func New(d display.Drawer, opts *Opts) (*View, error) {
	if opts == nil {
		opts = &Opts{}
	}
	size := opts.FontSize
	if size == 0 {
		size = float64(d.Bounds().Dy()) / 6 * 0.8
	}
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("imuview: can't parse font: %w", err)
	}
	v := &View{
		d:    d,
		face: truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}),
		fg:   opts.Foreground,
		bg:   opts.Background,
	}
	if v.fg == nil {
		v.fg = color.White
	}
	if v.bg == nil {
		v.bg = color.Black
	}
	return v, nil
}

func (v *View) String() string {
	return fmt.Sprintf("View{%s}", v.d)
}

// Show renders s and draws it over the whole display.
func (v *View) Show(s mpu6050.Sample) error {
	r := v.d.Bounds()
	return v.d.Draw(r, v.Render(s, r.Dx(), r.Dy()), image.Point{})
}

// Render returns s drawn on a w×h image.
func (v *View) Render(s mpu6050.Sample, w, h int) image.Image {
	dc := gg.NewContext(w, h)
	dc.SetColor(v.bg)
	dc.Clear()
	dc.SetColor(v.fg)
	dc.SetFontFace(v.face)

	a := s.Acceleration()
	g := s.AngularVelocity()
	rowH := float64(h) / 6
	barX := float64(w) * 0.55
	half := (float64(w) - barX) / 2
	cx := barX + half
	for i := 0; i < 6; i++ {
		var label string
		var raw int16
		if i < 3 {
			label = fmt.Sprintf("a%c%+6.2f", 'x'+i, a[i])
			raw = s.Accel[i]
		} else {
			label = fmt.Sprintf("g%c%+6.2f", 'x'+i-3, g[i-3])
			raw = s.Gyro[i-3]
		}
		y := float64(i) * rowH
		dc.DrawString(label, 1, y+rowH*0.8)

		l := float64(raw) / 32768 * half
		x := cx
		if l < 0 {
			x, l = cx+l, -l
		}
		dc.DrawRectangle(x, y+1, l, rowH-2)
		dc.Fill()
	}
	return dc.Image()
}
