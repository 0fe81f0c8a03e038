package controller

import (
	"errors"
	"petopia_backend/internal/service"
	"petopia_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CheckinController struct {
	CheckinService *service.CheckinService
}

func NewCheckinController(checkinService *service.CheckinService) *CheckinController {
	return &CheckinController{CheckinService: checkinService}
}

// Checkin godoc
// @Summary 每日签到
// @Description 签到领取积分，连续签到有额外奖励
// @Tags 签到
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.CheckinResult} "签到成功"
// @Failure 409 {object} util.Response "今日已签到"
// @Router /api/checkin [post]
func (c *CheckinController) Checkin(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.CheckinService.Checkin(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrAlreadyCheckedIn) {
			util.Conflict(ctx, "今日已签到")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// GetStatus godoc
// @Summary 签到状态
// @Description 查询今日签到状态与连签天数
// @Tags 签到
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.CheckinStatus} "成功"
// @Router /api/checkin/status [get]
func (c *CheckinController) GetStatus(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	status, err := c.CheckinService.Status(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, status)
}
