// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	done bool
	err  error
}

func (f *fakeToken) Wait() bool                     { return true }
func (f *fakeToken) WaitTimeout(time.Duration) bool { return f.done }
func (f *fakeToken) Error() error                   { return f.err }
func (f *fakeToken) Done() <-chan struct{} {
	c := make(chan struct{})
	if f.done {
		close(c)
	}
	return c
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	token *fakeToken
	msgs  []published
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.msgs = append(f.msgs, published{topic, qos, retained, payload.([]byte)})
	return f.token
}

func TestMQTT(t *testing.T) {
	p := &fakePublisher{token: &fakeToken{done: true}}
	m, err := NewMQTT(p, &MQTTOpts{Topic: "imu/left", QoS: 1, Retained: true, Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if s := m.String(); s != "MQTT{imu/left}" {
		t.Fatal(s)
	}
	r := NewReading(time.Unix(0, 0), testSample(t))
	if err := m.Send(r); err != nil {
		t.Fatal(err)
	}
	if len(p.msgs) != 1 {
		t.Fatalf("%d messages", len(p.msgs))
	}
	got := p.msgs[0]
	if got.topic != "imu/left" || got.qos != 1 || !got.retained {
		t.Fatalf("%+v", got)
	}
	var back Reading
	if err := json.Unmarshal(got.payload, &back); err != nil {
		t.Fatal(err)
	}
	if back.AccelRaw != r.AccelRaw || back.GyroRaw != r.GyroRaw {
		t.Fatalf("%+v != %+v", back, r)
	}
}

func TestMQTT_errors(t *testing.T) {
	p := &fakePublisher{token: &fakeToken{done: false}}
	m, err := NewMQTT(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := NewReading(time.Unix(0, 0), testSample(t))
	if err := m.Send(r); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	broker := errors.New("not connected")
	p.token = &fakeToken{done: true, err: broker}
	if err := m.Send(r); !errors.Is(err, broker) {
		t.Fatalf("expected %v, got %v", broker, err)
	}
	p.token = &fakeToken{err: broker}
	m, _ = NewMQTT(p, &MQTTOpts{Topic: "t"})
	if err := m.Send(r); !errors.Is(err, broker) {
		t.Fatalf("expected %v without timeout, got %v", broker, err)
	}
}

func TestNewMQTT_invalid(t *testing.T) {
	if _, err := NewMQTT(&fakePublisher{}, &MQTTOpts{}); err == nil {
		t.Fatal("empty topic")
	}
	if _, err := NewMQTT(&fakePublisher{}, &MQTTOpts{Topic: "t", QoS: 3}); err == nil {
		t.Fatal("qos 3")
	}
}
