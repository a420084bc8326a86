package rgrpc

import (
	"encoding/base64"
	"strconv"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/luno/catchup"
)

// Struct field names. Revisions are encoded as decimal strings since
// structpb numbers are float64. Bytes are base64 encoded.
const (
	fieldContext     = "context"
	fieldAggregate   = "aggregate"
	fieldAggregateID = "aggregate_id"
	fieldToken       = "token"
	fieldRevision    = "stream_revision"
	fieldID          = "id"
	fieldPayload     = "payload"
	fieldTimestamp   = "timestamp"
	fieldTrace       = "trace"
)

type request struct {
	Query    catchup.Query
	Token    string
	Revision int64
}

func requestToProto(r request) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		fieldContext:     r.Query.Context,
		fieldAggregate:   r.Query.Aggregate,
		fieldAggregateID: r.Query.AggregateID,
		fieldToken:       r.Token,
		fieldRevision:    strconv.FormatInt(r.Revision, 10),
	})
}

func requestFromProto(pb *structpb.Struct) (request, error) {
	f := pb.GetFields()

	r := request{
		Query: catchup.Query{
			Context:     f[fieldContext].GetStringValue(),
			Aggregate:   f[fieldAggregate].GetStringValue(),
			AggregateID: f[fieldAggregateID].GetStringValue(),
		},
		Token: f[fieldToken].GetStringValue(),
	}

	if r.Token == "" {
		return request{}, errors.Wrap(ErrInvalidRequest, "missing token")
	}

	rev, err := strconv.ParseInt(f[fieldRevision].GetStringValue(), 10, 64)
	if err != nil {
		return request{}, errors.Wrap(ErrInvalidRequest, "invalid revision",
			j.KS("revision", f[fieldRevision].GetStringValue()))
	}
	r.Revision = rev

	return r, nil
}

func eventToProto(e *catchup.Event) (*structpb.Struct, error) {
	m := map[string]interface{}{
		fieldID:        e.ID,
		fieldRevision:  strconv.FormatInt(e.StreamRevision, 10),
		fieldPayload:   base64.StdEncoding.EncodeToString(e.Payload),
		fieldTimestamp: e.Timestamp.Format(time.RFC3339Nano),
	}
	if len(e.Trace) > 0 {
		m[fieldTrace] = base64.StdEncoding.EncodeToString(e.Trace)
	}

	return structpb.NewStruct(m)
}

func eventFromProto(pb *structpb.Struct) (*catchup.Event, error) {
	f := pb.GetFields()

	rev, err := strconv.ParseInt(f[fieldRevision].GetStringValue(), 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parse revision")
	}

	payload, err := base64.StdEncoding.DecodeString(f[fieldPayload].GetStringValue())
	if err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}

	ts, err := time.Parse(time.RFC3339Nano, f[fieldTimestamp].GetStringValue())
	if err != nil {
		return nil, errors.Wrap(err, "parse timestamp")
	}

	e := &catchup.Event{
		ID:             f[fieldID].GetStringValue(),
		StreamRevision: rev,
		Payload:        payload,
		Timestamp:      ts,
	}

	if t := f[fieldTrace].GetStringValue(); t != "" {
		e.Trace, err = base64.StdEncoding.DecodeString(t)
		if err != nil {
			return nil, errors.Wrap(err, "decode trace")
		}
	}

	return e, nil
}
