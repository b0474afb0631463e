package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes both the state document and the values stored in it.
type Codec interface {
	Name() string
	FileName() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	encodeDocument(doc document) ([]byte, error)
	decodeDocument(data []byte) (document, error)
}

// document is the codec-neutral view of the state file.
type document struct {
	Version   string
	UpdatedAt time.Time
	Values    map[string][]byte
}

func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack", "mp":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported state codec %q (supported: json, msgpack)", name)
	}
}

// JSONCodec keeps the state file human readable.
type JSONCodec struct{}

type jsonDocument struct {
	Version   string                     `json:"version"`
	UpdatedAt time.Time                  `json:"updated_at"`
	Values    map[string]json.RawMessage `json:"values"`
}

func (JSONCodec) Name() string     { return "json" }
func (JSONCodec) FileName() string { return "state.json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) encodeDocument(doc document) ([]byte, error) {
	out := jsonDocument{
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
		Values:    make(map[string]json.RawMessage, len(doc.Values)),
	}
	for key, raw := range doc.Values {
		out.Values[key] = json.RawMessage(raw)
	}
	return json.MarshalIndent(out, "", "  ")
}

func (JSONCodec) decodeDocument(data []byte) (document, error) {
	var in jsonDocument
	if err := json.Unmarshal(data, &in); err != nil {
		return document{}, err
	}
	doc := document{
		Version:   in.Version,
		UpdatedAt: in.UpdatedAt,
		Values:    make(map[string][]byte, len(in.Values)),
	}
	for key, raw := range in.Values {
		doc.Values[key] = []byte(raw)
	}
	return doc, nil
}

// MsgpackCodec trades readability for a compact binary file.
type MsgpackCodec struct{}

type msgpackDocument struct {
	Version   string                        `msgpack:"version"`
	UpdatedAt time.Time                     `msgpack:"updated_at"`
	Values    map[string]msgpack.RawMessage `msgpack:"values"`
}

func (MsgpackCodec) Name() string     { return "msgpack" }
func (MsgpackCodec) FileName() string { return "state.mp" }

func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (MsgpackCodec) encodeDocument(doc document) ([]byte, error) {
	out := msgpackDocument{
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
		Values:    make(map[string]msgpack.RawMessage, len(doc.Values)),
	}
	for key, raw := range doc.Values {
		out.Values[key] = msgpack.RawMessage(raw)
	}
	return msgpack.Marshal(out)
}

func (MsgpackCodec) decodeDocument(data []byte) (document, error) {
	var in msgpackDocument
	if err := msgpack.Unmarshal(data, &in); err != nil {
		return document{}, err
	}
	doc := document{
		Version:   in.Version,
		UpdatedAt: in.UpdatedAt,
		Values:    make(map[string][]byte, len(in.Values)),
	}
	for key, raw := range in.Values {
		doc.Values[key] = []byte(raw)
	}
	return doc, nil
}
