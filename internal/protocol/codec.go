package protocol

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// State messages are the bandwidth-dominant traffic, so they go over the
// wire as binary msgpack frames; everything else stays JSON text frames.
// The json struct tags drive both encodings.

// EncodeState marshals a StateMsg to msgpack
func EncodeState(msg *StateMsg) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeState unmarshals a msgpack-encoded StateMsg
func DecodeState(data []byte) (*StateMsg, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	msg := &StateMsg{}
	if err := dec.Decode(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
