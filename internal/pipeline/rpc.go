package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pagemesh/pagemesh/internal/engine"
	"github.com/pagemesh/pagemesh/pkg/grpc"
	"github.com/pagemesh/pagemesh/pkg/proto"
)

// RegisterRPC exposes the engine's operations over the internal RPC
// protocol, for trusted service-to-service callers that want to skip the
// HTTP surface.
func RegisterRPC(server *grpc.Server, eng *engine.Engine) {
	server.Register("Health.Score", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.AnalyzeHealthRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding score params: %w", err)
		}
		return eng.AnalyzeHealth(ctx, &req)
	})

	server.Register("Mesh.Build", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.BuildMeshRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding mesh params: %w", err)
		}
		return eng.BuildMesh(ctx, &req)
	})
}
