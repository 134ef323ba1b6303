package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/fraudshield/screening/internal/ports"
)

const (
	scoringServiceName      = "fraudshield.scoring.v1.FraudDetectionService"
	predictFraudFullMethod  = "/" + scoringServiceName + "/PredictFraud"
	scoringProtoPackageName = "fraudshield.scoring.v1"
)

// The scoring engine contract, equivalent to:
//
//	syntax = "proto3";
//	package fraudshield.scoring.v1;
//
//	service FraudDetectionService {
//	  rpc PredictFraud(FraudRequest) returns (FraudResponse);
//	}
//	message FraudRequest {
//	  string transaction_id = 1;
//	  string card_number = 2;
//	  double amount = 3;
//	  string merchant = 4;
//	  string location = 5;
//	}
//	message FraudResponse {
//	  string transaction_id = 1;
//	  bool fraudulent = 2;
//	  double confidence_score = 3;
//	}
var (
	scoringFile         protoreflect.FileDescriptor
	fraudRequestDesc    protoreflect.MessageDescriptor
	fraudResponseDesc   protoreflect.MessageDescriptor
	fieldReqTxID        protoreflect.FieldDescriptor
	fieldReqCardNumber  protoreflect.FieldDescriptor
	fieldReqAmount      protoreflect.FieldDescriptor
	fieldReqMerchant    protoreflect.FieldDescriptor
	fieldReqLocation    protoreflect.FieldDescriptor
	fieldRespTxID       protoreflect.FieldDescriptor
	fieldRespFraudulent protoreflect.FieldDescriptor
	fieldRespConfidence protoreflect.FieldDescriptor
)

func init() {
	fd, err := protodesc.NewFile(scoringFileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("build scoring descriptor: %v", err))
	}
	scoringFile = fd
	fraudRequestDesc = fd.Messages().ByName("FraudRequest")
	fraudResponseDesc = fd.Messages().ByName("FraudResponse")

	reqFields := fraudRequestDesc.Fields()
	fieldReqTxID = reqFields.ByName("transaction_id")
	fieldReqCardNumber = reqFields.ByName("card_number")
	fieldReqAmount = reqFields.ByName("amount")
	fieldReqMerchant = reqFields.ByName("merchant")
	fieldReqLocation = reqFields.ByName("location")

	respFields := fraudResponseDesc.Fields()
	fieldRespTxID = respFields.ByName("transaction_id")
	fieldRespFraudulent = respFields.ByName("fraudulent")
	fieldRespConfidence = respFields.ByName("confidence_score")
}

func scoringFileDescriptorProto() *descriptorpb.FileDescriptorProto {
	field := func(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			JsonName: proto.String(protoJSONName(name)),
			Number:   proto.Int32(number),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     typ.Enum(),
		}
	}
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("fraudshield/scoring/v1/scoring.proto"),
		Package: proto.String(scoringProtoPackageName),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("FraudRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("transaction_id", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					field("card_number", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					field("amount", 3, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					field("merchant", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					field("location", 5, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
			{
				Name: proto.String("FraudResponse"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("transaction_id", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					field("fraudulent", 2, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					field("confidence_score", 3, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
				},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("FraudDetectionService"),
				Method: []*descriptorpb.MethodDescriptorProto{
					{
						Name:       proto.String("PredictFraud"),
						InputType:  proto.String("." + scoringProtoPackageName + ".FraudRequest"),
						OutputType: proto.String("." + scoringProtoPackageName + ".FraudResponse"),
					},
				},
			},
		},
	}
}

func protoJSONName(name string) string {
	out := make([]byte, 0, len(name))
	upper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}

func newFraudRequest(req ports.ScoringRequest) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(fraudRequestDesc)
	msg.Set(fieldReqTxID, protoreflect.ValueOfString(req.TransactionID))
	msg.Set(fieldReqCardNumber, protoreflect.ValueOfString(req.CardNumber))
	msg.Set(fieldReqAmount, protoreflect.ValueOfFloat64(req.Amount))
	msg.Set(fieldReqMerchant, protoreflect.ValueOfString(req.Merchant))
	msg.Set(fieldReqLocation, protoreflect.ValueOfString(req.Location))
	return msg
}

func readFraudRequest(msg *dynamicpb.Message) ports.ScoringRequest {
	return ports.ScoringRequest{
		TransactionID: msg.Get(fieldReqTxID).String(),
		CardNumber:    msg.Get(fieldReqCardNumber).String(),
		Amount:        msg.Get(fieldReqAmount).Float(),
		Merchant:      msg.Get(fieldReqMerchant).String(),
		Location:      msg.Get(fieldReqLocation).String(),
	}
}

func newFraudResponse(resp ports.ScoringResponse) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(fraudResponseDesc)
	msg.Set(fieldRespTxID, protoreflect.ValueOfString(resp.TransactionID))
	msg.Set(fieldRespFraudulent, protoreflect.ValueOfBool(resp.Fraudulent))
	msg.Set(fieldRespConfidence, protoreflect.ValueOfFloat64(resp.ConfidenceScore))
	return msg
}

func readFraudResponse(msg *dynamicpb.Message) ports.ScoringResponse {
	return ports.ScoringResponse{
		TransactionID:   msg.Get(fieldRespTxID).String(),
		Fraudulent:      msg.Get(fieldRespFraudulent).Bool(),
		ConfidenceScore: msg.Get(fieldRespConfidence).Float(),
	}
}

// RegisterScoringServer exposes engine as FraudDetectionService on server.
// Production scoring runs elsewhere; this serves local stubs and tests.
func RegisterScoringServer(server grpc.ServiceRegistrar, engine ports.ScoringEngine) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: scoringServiceName,
		HandlerType: (*ports.ScoringEngine)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "PredictFraud",
				Handler:    predictFraudHandler(engine),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: scoringFile.Path(),
	}, engine)
}

func predictFraudHandler(engine ports.ScoringEngine) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	call := func(ctx context.Context, req *dynamicpb.Message) (any, error) {
		resp, err := engine.PredictFraud(ctx, readFraudRequest(req))
		if err != nil {
			if _, ok := status.FromError(err); ok {
				return nil, err
			}
			return nil, status.Error(codes.Internal, err.Error())
		}
		return newFraudResponse(resp), nil
	}
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := dynamicpb.NewMessage(fraudRequestDesc)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: predictFraudFullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*dynamicpb.Message)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
