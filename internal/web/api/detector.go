package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gowvp/replay/internal/core/detector"
	"github.com/gowvp/replay/internal/rpc"
	"github.com/ixugo/goddd/pkg/web"
)

// DetectorAPI 检测器与标注查询接口
type DetectorAPI struct {
	detectorCore detector.Core
	analysis     *rpc.AnalysisClient
}

func NewDetectorAPI(core detector.Core, analysis *rpc.AnalysisClient) DetectorAPI {
	return DetectorAPI{detectorCore: core, analysis: analysis}
}

func registerDetector(g gin.IRouter, api DetectorAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/detectors")
	group.GET("", web.WrapH(api.findDetectors))
	group.GET("/health", web.WrapH(api.analysisHealth))
	group.GET("/annotations", web.WrapH(api.findAnnotations))
	group.POST("", append(handler, web.WrapH(api.addDetector))...)
	group.DELETE("/:id", append(handler, web.WrapH(api.delDetector))...)
}

func (a DetectorAPI) findDetectors(c *gin.Context, in *detector.FindDetectorInput) (any, error) {
	items, total, err := a.detectorCore.FindDetectors(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a DetectorAPI) addDetector(c *gin.Context, in *detector.AddDetectorInput) (*detector.Detector, error) {
	return a.detectorCore.AddDetector(c.Request.Context(), in)
}

func (a DetectorAPI) delDetector(c *gin.Context, _ *struct{}) (*detector.Detector, error) {
	return a.detectorCore.DelDetector(c.Request.Context(), c.Param("id"))
}

func (a DetectorAPI) findAnnotations(c *gin.Context, in *detector.FindAnnotationInput) (any, error) {
	items, total, err := a.detectorCore.FindAnnotations(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

// analysisHealth 探测检测分析服务可用性
func (a DetectorAPI) analysisHealth(c *gin.Context, _ *struct{}) (gin.H, error) {
	if a.analysis == nil {
		return gin.H{"serving": false, "msg": "analysis service not configured"}, nil
	}
	serving, err := a.analysis.Check(c.Request.Context())
	if err != nil {
		return gin.H{"serving": false, "msg": err.Error()}, nil
	}
	return gin.H{"serving": serving}, nil
}
