package events

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrEmptyEvent = errors.New("message carries no event")

// Codec turns envelopes into broker payloads and back
type Codec interface {
	Name() string
	Encode(env Envelope) ([]byte, error)
	// Decode accepts an envelope, or a bare event object published by a tool that knows nothing about envelopes
	Decode(channel Channel, b []byte) (Envelope, error)
}

func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return jsonCodec{}, nil
	case "msgpack":
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func (jsonCodec) Decode(channel Channel, b []byte) (Envelope, error) {
	env := Envelope{}
	if err := json.Unmarshal(b, &env); err != nil {
		return env, err
	}

	return normalize(channel, env, func(ev *ChannelEvent) error {
		return json.Unmarshal(b, ev)
	})
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string {
	return "msgpack"
}

func (msgpackCodec) Encode(env Envelope) ([]byte, error) {
	return msgpack.Marshal(env)
}

func (msgpackCodec) Decode(channel Channel, b []byte) (Envelope, error) {
	env := Envelope{}
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return env, err
	}

	return normalize(channel, env, func(ev *ChannelEvent) error {
		return msgpack.Unmarshal(b, ev)
	})
}

func normalize(channel Channel, env Envelope, bare func(ev *ChannelEvent) error) (Envelope, error) {
	if env.Event == nil {
		ev := ChannelEvent{}
		if err := bare(&ev); err != nil {
			return env, err
		}

		if ev == nil {
			return env, ErrEmptyEvent
		}

		env = Envelope{Event: ev}
	}

	// the broker channel is authoritative
	env.Channel = channel

	return env, nil
}
