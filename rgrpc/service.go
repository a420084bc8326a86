package rgrpc

import (
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName = "catchup.Subscriptions"
	methodName  = "Subscribe"
	fullMethod  = "/" + serviceName + "/" + methodName
)

// subscriptionsServer is implemented by Server.
type subscriptionsServer interface {
	serve(req *structpb.Struct, ss grpc.ServerStream) error
}

// serviceDesc describes the server streaming Subscribe method. Both the request and
// the events are protobuf Structs, see proto.go for the field mapping.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*subscriptionsServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    methodName,
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "catchup/subscriptions",
}

func subscribeHandler(srv interface{}, ss grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := ss.RecvMsg(req); err != nil {
		return err
	}
	return srv.(subscriptionsServer).serve(req, ss)
}
