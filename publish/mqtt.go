// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the part of mqtt.Client used by MQTT.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTOpts configures the MQTT sink.
type MQTTOpts struct {
	Topic    string
	QoS      byte
	Retained bool
	// Timeout bounds the wait for the broker acknowledgement. 0 waits
	// forever.
	Timeout time.Duration
}

// DefaultMQTTOpts publishes retained readings at QoS 0.
var DefaultMQTTOpts = MQTTOpts{
	Topic:    "motion/mpu6050",
	Retained: true,
	Timeout:  2 * time.Second,
}

// ErrTimeout is returned when the broker did not acknowledge in time.
var ErrTimeout = errors.New("publish: timed out")

// MQTT publishes readings as JSON to a broker.
type MQTT struct {
	c    Publisher
	opts MQTTOpts
}

// NewMQTT returns a sink publishing through c, which is usually a connected
// mqtt.Client.
func NewMQTT(c Publisher, opts *MQTTOpts) (*MQTT, error) {
	if opts == nil {
		opts = &DefaultMQTTOpts
	}
	if opts.Topic == "" {
		return nil, errors.New("publish: empty MQTT topic")
	}
	if opts.QoS > 2 {
		return nil, fmt.Errorf("publish: invalid MQTT QoS %d", opts.QoS)
	}
	return &MQTT{c: c, opts: *opts}, nil
}

func (m *MQTT) String() string {
	return "MQTT{" + m.opts.Topic + "}"
}

// Send implements Sink.
func (m *MQTT) Send(r Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	token := m.c.Publish(m.opts.Topic, m.opts.QoS, m.opts.Retained, payload)
	if m.opts.Timeout > 0 {
		if !token.WaitTimeout(m.opts.Timeout) {
			return fmt.Errorf("%w: mqtt %s", ErrTimeout, m.opts.Topic)
		}
	} else {
		token.Wait()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: mqtt %s: %w", m.opts.Topic, err)
	}
	return nil
}

var _ Sink = &MQTT{}
