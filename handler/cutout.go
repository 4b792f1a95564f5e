package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/chaos-io/cutout/cutout"
	"github.com/chaos-io/cutout/cutout/rembg"
	"github.com/chaos-io/cutout/model"
	"github.com/chaos-io/cutout/service"
	"github.com/chaos-io/cutout/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CutoutHandler struct {
	svc     *service.CutoutService
	maxSize int64
}

func NewCutoutHandler(svc *service.CutoutService, maxSize int64) *CutoutHandler {
	return &CutoutHandler{
		svc:     svc,
		maxSize: maxSize,
	}
}

// Register 注册 /api/v1 下的路由
func (h *CutoutHandler) Register(api *gin.RouterGroup) {
	api.POST("/cutout", h.Cutout)
	api.GET("/results/:id", h.GetResult)
	api.GET("/models", h.Models)
}

func fail(c *gin.Context, status int, message string, err error) {
	resp := model.ErrorResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
		_ = c.Error(err)
	}
	c.JSON(status, resp)
}

// statusFor 错误到 HTTP 状态码的映射
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, cutout.ErrUnsupportedInputFormat):
		return http.StatusUnsupportedMediaType, "不支持的文件类型"
	case errors.Is(err, cutout.ErrSurfaceAllocation):
		return http.StatusRequestEntityTooLarge, "图片尺寸过大"
	case errors.Is(err, cutout.ErrInvalidDimensions):
		return http.StatusBadRequest, "图片尺寸无效"
	case errors.Is(err, cutout.ErrModelAssetUnavailable):
		return http.StatusServiceUnavailable, "模型暂不可用"
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests, "处理队列已满，请稍后重试"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "处理超时"
	default:
		return http.StatusInternalServerError, "图片处理失败"
	}
}

// parseSettings 读取表单中的参数，缺省项使用服务默认值
func parseSettings(c *gin.Context, defaults cutout.Settings) (cutout.Settings, error) {
	s := defaults

	if v, ok := c.GetPostForm("input_size"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("input_size: %w", err)
		}
		s.InputSize = n
	}
	if v, ok := c.GetPostForm("threshold"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("threshold: %w", err)
		}
		s.Threshold = f
	}
	if v, ok := c.GetPostForm("feather"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("feather: %w", err)
		}
		s.Feather = f
	}
	if v, ok := c.GetPostForm("model"); ok && v != "" {
		s.Model = rembg.Model(v)
	}
	if v, ok := c.GetPostForm("background"); ok {
		s.Background = v
	}
	return s.Normalize(), nil
}

// Cutout 上传图片并抠图
//
//	format=png 直接返回 PNG，否则返回 JSON 元数据
func (h *CutoutHandler) Cutout(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		util.Logger.Warn("failed to get uploaded file", zap.Error(err))
		fail(c, http.StatusBadRequest, "请上传图片文件", err)
		return
	}

	// 验证文件大小
	if h.maxSize > 0 && file.Size > h.maxSize {
		fail(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("文件大小超过限制 (%d MB)", h.maxSize/(1024*1024)), nil)
		return
	}

	settings, err := parseSettings(c, h.svc.Defaults())
	if err != nil {
		fail(c, http.StatusBadRequest, "参数错误", err)
		return
	}

	f, err := file.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, "读取文件失败", err)
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		fail(c, http.StatusInternalServerError, "读取文件失败", err)
		return
	}

	// 按内容判断类型，不信任客户端的 Content-Type
	if _, err := cutout.DetectImageType(data); err != nil {
		fail(c, http.StatusUnsupportedMediaType, "不支持的文件类型", err)
		return
	}

	util.Logger.Info("file uploaded",
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
		zap.String("model", settings.Model.String()))

	result, png, err := h.svc.Process(c.Request.Context(), data, settings)
	if err != nil {
		status, message := statusFor(err)
		util.Logger.Error("failed to process image", zap.Int("status", status), zap.Error(err))
		fail(c, status, message, err)
		return
	}

	c.Header("X-Result-ID", result.ID)
	if c.DefaultQuery("format", c.DefaultPostForm("format", "json")) == "png" {
		c.Data(http.StatusOK, "image/png", png)
		return
	}

	c.JSON(http.StatusOK, model.CutoutResponse{
		Success: true,
		Message: "处理成功",
		Data:    result,
	})
}

// GetResult 下载已保存的结果
func (h *CutoutHandler) GetResult(c *gin.Context) {
	id := c.Param("id")
	data, err := h.svc.Result(id)
	switch {
	case errors.Is(err, service.ErrInvalidResultID):
		fail(c, http.StatusBadRequest, "结果 ID 无效", err)
		return
	case errors.Is(err, service.ErrResultNotFound):
		fail(c, http.StatusNotFound, "结果不存在或已过期", nil)
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, "查询失败", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.png"`, id))
	c.Data(http.StatusOK, "image/png", data)
}

// Models 列出支持的模型
func (h *CutoutHandler) Models(c *gin.Context) {
	var infos []model.ModelInfo
	for _, m := range rembg.Models() {
		infos = append(infos, model.ModelInfo{
			Name:             m.String(),
			Asset:            m.Asset(),
			DefaultInputSize: m.DefaultInputSize(),
		})
	}
	c.JSON(http.StatusOK, model.ModelsResponse{Success: true, Data: infos})
}
