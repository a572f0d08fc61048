// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mpu6050_test

import (
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/motion/mpu6050"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Use i2creg I²C bus registry to find the first available I²C bus.
	b, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close()

	opts := mpu6050.DefaultOpts
	opts.SampleRate = 50
	d, err := mpu6050.NewI2C(b, mpu6050.DefaultI2CAddress, &opts)
	if err != nil {
		log.Fatalf("failed to initialize mpu6050: %v", err)
	}
	defer d.Halt()

	// Switch to ±8g.
	if err := d.SetScale(mpu6050.Accel, 0, 2394); err != nil {
		log.Fatal(err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	stop := time.After(3 * time.Second)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s, err := d.Sense()
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(s)
		}
	}
}

func ExampleDev_ReadRaw() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	b, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close()

	d, err := mpu6050.NewI2C(b, mpu6050.DefaultI2CAddress, nil)
	if err != nil {
		log.Fatal(err)
	}
	for _, c := range mpu6050.Channels() {
		v, err := d.ReadRaw(c)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("in_%s_raw=%d\n", c, v)
	}
	for _, t := range []mpu6050.ChannelType{mpu6050.Accel, mpu6050.AngularVelocity} {
		s, err := d.Scale(t)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("in_%s_scale=%s available=%v\n", t, s, d.AvailableScales(t))
	}
	hz, err := d.SampleRate()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("sampling_frequency=%d available=%v\n", hz, d.AvailableRates())
}
