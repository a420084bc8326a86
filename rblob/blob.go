package rblob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"gocloud.dev/blob"

	"github.com/luno/catchup"
)

// ErrRevisionConflict is returned when appending an event with a revision
// that already exists in the stream.
var ErrRevisionConflict = errors.New("stream revision already exists", j.C("ERR_8f13b6e2d5a04c97"))

// Option is a functional option that configures a store.
type Option func(*Store)

// WithCodec returns an option to configure the blob content codec.
// It defaults to JSONCodec.
func WithCodec(c Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// WithPrefix returns an option to store all streams under the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.Trim(prefix, "/")
	}
}

// OpenStore opens and returns a store for the provided url.
//
// label defines the bucket label used for metrics.
//
// urlstr defines the url of the blob bucket. See the gocloud
// URLOpener documentation in driver subpackages for details
// on supported URL formats. Also see https://gocloud.dev/concepts/urls/
// and https://gocloud.dev/howto/blob/.
func OpenStore(ctx context.Context, label, urlstr string, opts ...Option) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, err
	}

	return NewStore(label, bucket, opts...), nil
}

// NewStore returns a store using the provided underlying bucket.
func NewStore(label string, bucket *blob.Bucket, opts ...Option) *Store {
	s := &Store{
		label:  label,
		bucket: bucket,
		codec:  JSONCodec{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Store is a catchup.EventStore of events archived in a bucket, one blob
// per event keyed by stream and zero-padded revision.
type Store struct {
	label  string
	bucket *blob.Bucket
	codec  Codec
	prefix string
}

// Close releases any resources used by the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Append writes the event to the stream. It returns ErrRevisionConflict if
// the revision already exists. Streams should have a single writer.
func (s *Store) Append(ctx context.Context, q catchup.Query, e *catchup.Event) error {
	key := s.key(q, e.StreamRevision)

	ok, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return errors.Wrap(err, "exists")
	} else if ok {
		return errors.Wrap(ErrRevisionConflict, "", j.KS("key", key))
	}

	b, err := s.codec.Encode(e)
	if err != nil {
		return errors.Wrap(err, "encode")
	}

	err = s.bucket.WriteAll(ctx, key, b, &blob.WriterOptions{
		ContentType: s.codec.ContentType(),
	})
	if err != nil {
		return errors.Wrap(err, "write")
	}

	writeCounter.WithLabelValues(s.label).Inc()

	return nil
}

func (s *Store) GetLastEvent(ctx context.Context, q catchup.Query) (*catchup.Event, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: s.streamPrefix(q)})

	var last string
	for {
		o, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "list iter")
		}

		if o.IsDir {
			continue
		}

		last = o.Key
	}

	if last == "" {
		return nil, nil
	}

	return s.read(ctx, last)
}

func (s *Store) GetEventStream(ctx context.Context, q catchup.Query,
	minRevision, maxRevision int64,
) ([]*catchup.Event, error) {
	el := []*catchup.Event{}
	if maxRevision < minRevision || maxRevision < 0 {
		return el, nil
	}
	if minRevision < 0 {
		minRevision = 0
	}

	from := s.key(q, minRevision)
	to := s.key(q, maxRevision)

	opts := &blob.ListOptions{Prefix: s.streamPrefix(q)}
	if minRevision > 0 {
		opts.BeforeList = makeStartAfter(s.key(q, minRevision-1))
	}

	iter := s.bucket.List(opts)
	for {
		o, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "list iter")
		}

		if o.Key < from {
			listSkipCounter.WithLabelValues(s.label).Inc()
			continue
		} else if o.Key > to {
			break
		}

		e, err := s.read(ctx, o.Key)
		if err != nil {
			return nil, err
		}

		el = append(el, e)
	}

	return el, nil
}

func (s *Store) read(ctx context.Context, key string) (*catchup.Event, error) {
	b, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "read", j.KS("key", key))
	}

	readCounter.WithLabelValues(s.label).Inc()

	e, err := s.codec.Decode(b)
	if err != nil {
		return nil, errors.Wrap(err, "decode", j.KS("key", key))
	}

	e.ID = key

	return e, nil
}

func (s *Store) streamPrefix(q catchup.Query) string {
	return path.Join(s.prefix, q.Context, q.Aggregate, q.AggregateID) + "/"
}

// key returns the lexicographically ordered blob key of a revision,
// ex. bank/account/42/00000000000000000007.json.
func (s *Store) key(q catchup.Query, revision int64) string {
	return s.streamPrefix(q) + fmt.Sprintf("%020d", revision) + s.codec.Extension()
}

// makeStartAfter returns a blob.BeforeList function that starts listing after
// the provided key for improved performance when scanning large s3 buckets.
// It is a noop for other drivers.
func makeStartAfter(key string) func(func(interface{}) bool) error {
	return func(asFunc func(interface{}) bool) error {
		s3input := new(s3.ListObjectsV2Input)
		if !asFunc(&s3input) {
			return nil
		}
		s3input.StartAfter = &key
		return nil
	}
}
