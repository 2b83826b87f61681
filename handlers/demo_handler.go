package handlers

import (
	"context"
	"net/http"

	"github.com/upb/agent-cost-control/services/demo"
	"github.com/upb/agent-cost-control/utils"
	"go.uber.org/zap"
)

// DemoSeeder seeds demo data
type DemoSeeder interface {
	Seed(ctx context.Context, customerID string) (*demo.SeedResult, error)
}

// DemoHandler handles demo data requests
type DemoHandler struct {
	seeder DemoSeeder
	logger *zap.Logger
}

// NewDemoHandler creates a new DemoHandler
func NewDemoHandler(seeder DemoSeeder, logger *zap.Logger) *DemoHandler {
	return &DemoHandler{seeder: seeder, logger: logger}
}

// HandleSeed handles POST /seed-demo-data[?customer_id=...]
func (h *DemoHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	result, err := h.seeder.Seed(r.Context(), r.URL.Query().Get("customer_id"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}
