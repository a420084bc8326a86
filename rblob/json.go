package rblob

import (
	"encoding/json"
	"time"

	"github.com/luno/catchup"
)

// Codec encodes and decodes events to and from blob content.
type Codec interface {
	Encode(e *catchup.Event) ([]byte, error)
	Decode(b []byte) (*catchup.Event, error)

	// ContentType is the MIME type of the blob content.
	ContentType() string

	// Extension is the file extension of the blob keys, including the dot.
	Extension() string
}

// JSONCodec is the default codec which stores events as json objects.
type JSONCodec struct{}

type jsonEvent struct {
	StreamRevision int64     `json:"stream_revision"`
	Payload        []byte    `json:"payload,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Trace          []byte    `json:"trace,omitempty"`
}

func (JSONCodec) Encode(e *catchup.Event) ([]byte, error) {
	return json.Marshal(jsonEvent{
		StreamRevision: e.StreamRevision,
		Payload:        e.Payload,
		Timestamp:      e.Timestamp,
		Trace:          e.Trace,
	})
}

func (JSONCodec) Decode(b []byte) (*catchup.Event, error) {
	var je jsonEvent
	if err := json.Unmarshal(b, &je); err != nil {
		return nil, err
	}

	return &catchup.Event{
		StreamRevision: je.StreamRevision,
		Payload:        je.Payload,
		Timestamp:      je.Timestamp,
		Trace:          je.Trace,
	}, nil
}

func (JSONCodec) ContentType() string {
	return "application/json"
}

func (JSONCodec) Extension() string {
	return ".json"
}
