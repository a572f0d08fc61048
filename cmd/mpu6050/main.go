// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// mpu6050 reads an MPU-6050 and shows or publishes the samples.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/motion/imuview"
	"github.com/GermanBionicSystems/motion/meter"
	"github.com/GermanBionicSystems/motion/mpu6050"
	"github.com/GermanBionicSystems/motion/orientation"
	"github.com/GermanBionicSystems/motion/publish"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/videosink"
	"periph.io/x/host/v3"
)

type config struct {
	interval time.Duration
	listen   string
	broker   string
	topic    string
	calib    time.Duration
	debug    mpu6050.DebugF
}

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use")
	addr := flag.Uint("addr", uint(mpu6050.DefaultI2CAddress), "I²C address of the MPU-6050 (0x68 or 0x69)")
	spiName := flag.String("spi", "", "SPI port to use instead of I²C (MPU-6000)")
	csName := flag.String("cs", "", "GPIO pin driven as chip select with -spi")
	hz := flag.Int("hz", mpu6050.DefaultSampleRate, "output sample rate in Hz")
	accel := flag.Int("accel", 0, "accelerometer scale index, 0 (±2g) to 3 (±16g)")
	gyro := flag.Int("gyro", 0, "gyroscope scale index, 0 (±250°/s) to 3 (±2000°/s)")
	interval := flag.Duration("interval", 100*time.Millisecond, "polling interval")
	mode := flag.String("mode", "auto", "output: auto, print, meter, oled, mjpeg, ws or mqtt")
	listen := flag.String("listen", ":8080", "HTTP address for -mode mjpeg and ws")
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker for -mode mqtt")
	topic := flag.String("topic", publish.DefaultMQTTOpts.Topic, "MQTT topic for -mode mqtt")
	calib := flag.Duration("calibrate", time.Second, "gyroscope calibration at rest for -mode ws and mqtt; 0 disables orientation")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	log.SetFlags(log.Lmicroseconds)
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	cfg := config{
		interval: *interval,
		listen:   *listen,
		broker:   *broker,
		topic:    *topic,
		calib:    *calib,
		debug:    log.Printf,
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	opts := mpu6050.Opts{SampleRate: *hz, AccelScale: *accel, GyroScale: *gyro}
	if *verbose {
		opts.Debug = cfg.debug
	}

	var bus i2c.BusCloser
	openBus := func() (i2c.Bus, error) {
		if bus == nil {
			b, err := i2creg.Open(*busName)
			if err != nil {
				return nil, err
			}
			bus = b
		}
		return bus, nil
	}
	defer func() {
		if bus != nil {
			bus.Close()
		}
	}()

	var d *mpu6050.Dev
	if *spiName != "" {
		p, err := spireg.Open(*spiName)
		if err != nil {
			return err
		}
		defer p.Close()
		var cs gpio.PinOut
		if *csName != "" {
			pin := gpioreg.ByName(*csName)
			if pin == nil {
				return fmt.Errorf("invalid chip select pin %q", *csName)
			}
			cs = pin
		}
		if d, err = mpu6050.NewSPI(p, cs, &opts); err != nil {
			return err
		}
	} else {
		b, err := openBus()
		if err != nil {
			return err
		}
		if d, err = mpu6050.NewI2C(b, uint16(*addr), &opts); err != nil {
			return err
		}
	}
	defer d.Halt()
	log.Printf("using %s", d)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *mode {
	case "auto":
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return runMeter(ctx, d, &cfg)
		}
		return ignoreCancel(runPrint(ctx, d, &cfg))
	case "print":
		return ignoreCancel(runPrint(ctx, d, &cfg))
	case "meter":
		return runMeter(ctx, d, &cfg)
	case "oled":
		b, err := openBus()
		if err != nil {
			return err
		}
		return ignoreCancel(runOLED(ctx, d, b, &cfg))
	case "mjpeg":
		return ignoreCancel(runMJPEG(ctx, d, &cfg))
	case "ws":
		return ignoreCancel(runWebSocket(ctx, d, &cfg))
	case "mqtt":
		return ignoreCancel(runMQTT(ctx, d, &cfg))
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// every calls f with a fresh sample every cfg.interval until ctx is done.
// Failed reads are logged and skipped.
func every(ctx context.Context, d *mpu6050.Dev, cfg *config, f func(mpu6050.Sample) error) error {
	t := time.NewTicker(cfg.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s, err := d.Sense()
			if err != nil {
				cfg.debug("read failed: %v", err)
				continue
			}
			if err := f(s); err != nil {
				return err
			}
		}
	}
}

func runPrint(ctx context.Context, d *mpu6050.Dev, cfg *config) error {
	return every(ctx, d, cfg, func(s mpu6050.Sample) error {
		_, err := fmt.Println(s)
		return err
	})
}

func runMeter(ctx context.Context, d *mpu6050.Dev, cfg *config) error {
	m := meter.New(nil)
	err := ignoreCancel(every(ctx, d, cfg, m.Display))
	if err2 := m.Halt(); err == nil {
		err = err2
	}
	return err
}

func runOLED(ctx context.Context, d *mpu6050.Dev, b i2c.Bus, cfg *config) error {
	o, err := ssd1306.NewI2C(b, &ssd1306.DefaultOpts)
	if err != nil {
		return err
	}
	defer o.Halt()
	v, err := imuview.New(o, &imuview.Opts{FontSize: 9})
	if err != nil {
		return err
	}
	log.Printf("drawing on %s", v)
	return every(ctx, d, cfg, v.Show)
}

func runMJPEG(ctx context.Context, d *mpu6050.Dev, cfg *config) error {
	vs := videosink.New(&videosink.Options{Width: 320, Height: 192, Format: videosink.JPEG})
	defer vs.Halt()
	v, err := imuview.New(vs, nil)
	if err != nil {
		return err
	}
	srv, err := serve(cfg, vs)
	if err != nil {
		return err
	}
	defer srv.Close()
	return every(ctx, d, cfg, v.Show)
}

func runWebSocket(ctx context.Context, d *mpu6050.Dev, cfg *config) error {
	f, err := calibrate(ctx, d, cfg)
	if err != nil {
		return err
	}
	opts := publish.HubOpts{Debug: cfg.debug}
	if f != nil {
		opts.Tuner = f
	}
	hub := publish.NewHub(&opts)
	defer hub.Halt()
	srv, err := serve(cfg, hub)
	if err != nil {
		return err
	}
	defer srv.Close()
	p := publish.Poller{Source: d, Interval: cfg.interval, Sinks: []publish.Sink{hub}, Filter: f, Debug: cfg.debug}
	return p.Run(ctx)
}

func runMQTT(ctx context.Context, d *mpu6050.Dev, cfg *config) error {
	f, err := calibrate(ctx, d, cfg)
	if err != nil {
		return err
	}
	hostname, _ := os.Hostname()
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.broker).
		SetClientID("mpu6050-" + hostname).
		SetAutoReconnect(true)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect to %s: %w", cfg.broker, token.Error())
	}
	defer c.Disconnect(250)
	mopts := publish.DefaultMQTTOpts
	mopts.Topic = cfg.topic
	sink, err := publish.NewMQTT(c, &mopts)
	if err != nil {
		return err
	}
	log.Printf("publishing to %s on %s", sink, cfg.broker)
	p := publish.Poller{Source: d, Interval: cfg.interval, Sinks: []publish.Sink{sink}, Filter: f, Debug: cfg.debug}
	return p.Run(ctx)
}

// calibrate measures the gyroscope bias at rest. It returns nil when
// calibration is disabled.
func calibrate(ctx context.Context, d *mpu6050.Dev, cfg *config) (*orientation.Filter, error) {
	if cfg.calib <= 0 {
		return nil, nil
	}
	fmt.Fprintf(os.Stderr, "Keep the sensor still for %s.\n", cfg.calib)
	f, err := orientation.Calibrate(ctx, d, cfg.calib, 10*time.Millisecond, orientation.DefaultParams)
	if err != nil {
		return nil, err
	}
	log.Printf("gyroscope bias %v rad/s", f.Bias())
	return f, nil
}

// serve listens on cfg.listen and serves h in the background.
func serve(cfg *config, h http.Handler) (*http.Server, error) {
	l, err := net.Listen("tcp", cfg.listen)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "mpu6050: %s\n", err)
		}
	}()
	log.Printf("serving on %s", l.Addr())
	return srv, nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "mpu6050: %s.\n", err)
		os.Exit(1)
	}
}
