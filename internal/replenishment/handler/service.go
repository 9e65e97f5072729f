package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "replenishment.v1.ReplenishmentService"

// ReplenishmentServer is the RPC surface. Requests and responses are JSON
// objects carried as google.protobuf.Struct.
type ReplenishmentServer interface {
	TriggerRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetLatestPlan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetPicklist(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetExceptions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetDataReadiness(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListStoreTiers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpsertStoreTier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteStoreTier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListSeasonality(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateSeasonality(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateSeasonality(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteSeasonality(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListPipeline(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdatePipeline(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListWarehouseInventory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateWarehouseInventory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetSettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateSettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(srv ReplenishmentServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ReplenishmentServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReplenishmentServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("TriggerRun", ReplenishmentServer.TriggerRun),
		methodDesc("GetLatestPlan", ReplenishmentServer.GetLatestPlan),
		methodDesc("GetPicklist", ReplenishmentServer.GetPicklist),
		methodDesc("GetExceptions", ReplenishmentServer.GetExceptions),
		methodDesc("GetDataReadiness", ReplenishmentServer.GetDataReadiness),
		methodDesc("ListStoreTiers", ReplenishmentServer.ListStoreTiers),
		methodDesc("UpsertStoreTier", ReplenishmentServer.UpsertStoreTier),
		methodDesc("DeleteStoreTier", ReplenishmentServer.DeleteStoreTier),
		methodDesc("ListSeasonality", ReplenishmentServer.ListSeasonality),
		methodDesc("CreateSeasonality", ReplenishmentServer.CreateSeasonality),
		methodDesc("UpdateSeasonality", ReplenishmentServer.UpdateSeasonality),
		methodDesc("DeleteSeasonality", ReplenishmentServer.DeleteSeasonality),
		methodDesc("ListPipeline", ReplenishmentServer.ListPipeline),
		methodDesc("UpdatePipeline", ReplenishmentServer.UpdatePipeline),
		methodDesc("ListWarehouseInventory", ReplenishmentServer.ListWarehouseInventory),
		methodDesc("UpdateWarehouseInventory", ReplenishmentServer.UpdateWarehouseInventory),
		methodDesc("GetSettings", ReplenishmentServer.GetSettings),
		methodDesc("UpdateSettings", ReplenishmentServer.UpdateSettings),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterReplenishmentServer(s grpc.ServiceRegistrar, srv ReplenishmentServer) {
	s.RegisterService(&ServiceDesc, srv)
}
