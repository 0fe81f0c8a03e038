package controller

import (
	"petopia_backend/internal/service"
	"petopia_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SettingController struct {
	SettingService *service.SettingService
}

func NewSettingController(settingService *service.SettingService) *SettingController {
	return &SettingController{SettingService: settingService}
}

// GetGameRules godoc
// @Summary 当前玩法规则
// @Description 查询生效中的每日次数上限与奖励表
// @Tags 设置
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.GameRules} "成功"
// @Router /api/settings/game-rules [get]
func (c *SettingController) GetGameRules(ctx *gin.Context) {
	rules := c.SettingService.EffectiveGameRules()
	util.Success(ctx, rules)
}

// UpdateGameRulesRequest 更新玩法规则请求，两个字段均可单独提交
type UpdateGameRulesRequest struct {
	DailyAttemptLimit *int                  `json:"dailyAttemptLimit" binding:"omitempty,min=1,max=100"`
	Rewards           *service.RewardPolicy `json:"rewards"`
}

// UpdateGameRules godoc
// @Summary 更新玩法规则
// @Description 覆盖每日次数上限或奖励表，立即对后续冒险生效
// @Tags 设置
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateGameRulesRequest true "规则配置"
// @Success 200 {object} util.Response{data=service.GameRules} "更新成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/settings/game-rules [put]
func (c *SettingController) UpdateGameRules(ctx *gin.Context) {
	var req UpdateGameRulesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if req.DailyAttemptLimit == nil && req.Rewards == nil {
		util.BadRequest(ctx, "至少提交一个待更新字段")
		return
	}

	if err := c.SettingService.UpdateGameRules(req.DailyAttemptLimit, req.Rewards); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, c.SettingService.EffectiveGameRules())
}
