package controller

import (
	"petopia_backend/internal/service"
	"petopia_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PointsController struct {
	PointsService *service.PointsService
}

func NewPointsController(pointsService *service.PointsService) *PointsController {
	return &PointsController{PointsService: pointsService}
}

// GetSummary godoc
// @Summary 积分概览
// @Description 查询当前余额与流水合计
// @Tags 积分
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PointsSummary} "成功"
// @Router /api/points/summary [get]
func (c *PointsController) GetSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.PointsService.GetSummary(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

// GetLedger godoc
// @Summary 积分流水
// @Description 分页查询积分变动记录
// @Tags 积分
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/points/ledger [get]
func (c *PointsController) GetLedger(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, total, err := c.PointsService.GetLedger(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  records,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
