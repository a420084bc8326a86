// Package rgrpc serves catchup subscriptions over gRPC server streams and
// provides a client that subscribes to them remotely.
//
// The service is catchup.Subscriptions/Subscribe. The request and the events are
// protobuf well-known Structs so no generated code is required.
package rgrpc
