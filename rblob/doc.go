// Package rblob leverages the gocloud.dev/blob package and provides
// a catchup.EventStore for events archived in a bucket, one immutable
// blob per event.
//
// Blob keys are the stream path followed by the zero-padded revision,
// ex. bank/account/42/00000000000000000007.json, so that listing a stream
// prefix returns its events in revision order. On s3 buckets, range reads
// start listing after the revision preceding the window.
//
// The store provides consistent reads ONLY in the following conditions:
//   - Each stream has a single writer that appends consecutive revisions.
//   - Blobs are immutable, they may not be modified or deleted.
package rblob
