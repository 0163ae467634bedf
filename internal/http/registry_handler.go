package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clmm-route-engine/internal/aggregator"
	"github.com/hxuan190/clmm-route-engine/internal/http/httputil"
)

type RegistryHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewRegistryHandler(aggregatorSvc *aggregator.Service) *RegistryHandler {
	return &RegistryHandler{aggregatorSvc: aggregatorSvc}
}

func (h *RegistryHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.stats)
	admin.POST("/reload", h.reload)
}

func (h *RegistryHandler) Root() string {
	return "/registry"
}

type RegistryStatsResponse struct {
	Coins    int   `json:"coins"`
	Pools    int   `json:"pools"`
	LoadedAt int64 `json:"loadedAt"`
}

func (h *RegistryHandler) stats(c *gin.Context) {
	coins, pools, loadedAt := h.aggregatorSvc.GraphStats()
	resp := RegistryStatsResponse{Coins: coins, Pools: pools}
	if !loadedAt.IsZero() {
		resp.LoadedAt = loadedAt.UnixMilli()
	}
	httputil.Success(c, resp)
}

func (h *RegistryHandler) reload(c *gin.Context) {
	stats, err := h.aggregatorSvc.ReloadRegistry(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.Success(c, stats)
}
