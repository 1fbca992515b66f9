package cds

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/thc1006/onap-policy-actors/pkg/models/cds"
)

// CodecName is the gRPC content subtype the process stream is carried in.
const CodecName = "json"

// ServiceName is the fully qualified name of the blueprint processing
// service.
const ServiceName = "org.onap.ccsdk.cds.controllerblueprints.processing.api.BluePrintProcessingService"

const processMethod = "/" + ServiceName + "/process"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec carries the execution messages as JSON.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                               { return CodecName }

// ProcessServer is implemented by blueprint processors.
type ProcessServer interface {
	Process(stream ProcessStream) error
}

// ProcessStream is the server side of one process stream.
type ProcessStream interface {
	Context() context.Context
	Send(*cds.ExecutionServiceOutput) error
	Recv() (*cds.ExecutionServiceInput, error)
}

// ServiceDesc describes the service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProcessServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "process",
			Handler:       processHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "BluePrintProcessing.proto",
}

// RegisterProcessServer registers srv on s.
func RegisterProcessServer(s grpc.ServiceRegistrar, srv ProcessServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func processHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(ProcessServer).Process(&serverStream{stream})
}

type serverStream struct {
	grpc.ServerStream
}

func (s *serverStream) Send(out *cds.ExecutionServiceOutput) error {
	return s.SendMsg(out)
}

func (s *serverStream) Recv() (*cds.ExecutionServiceInput, error) {
	in := &cds.ExecutionServiceInput{}
	if err := s.RecvMsg(in); err != nil {
		return nil, err
	}
	return in, nil
}

// ClientStream is the client side of one process stream.
type ClientStream struct {
	grpc.ClientStream
}

// OpenProcess opens a process stream on conn.
func OpenProcess(ctx context.Context, conn grpc.ClientConnInterface) (*ClientStream, error) {
	stream, err := conn.NewStream(ctx, &ServiceDesc.Streams[0], processMethod, grpc.CallContentSubtype(CodecName))
	if err != nil {
		return nil, err
	}
	return &ClientStream{stream}, nil
}

// Send sends one request.
func (s *ClientStream) Send(in *cds.ExecutionServiceInput) error {
	return s.SendMsg(in)
}

// Recv receives one response.
func (s *ClientStream) Recv() (*cds.ExecutionServiceOutput, error) {
	out := &cds.ExecutionServiceOutput{}
	if err := s.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}
