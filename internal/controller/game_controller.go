package controller

import (
	"errors"
	"net/http"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/service"
	"petopia_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type GameController struct {
	GameService *service.GameService
	AttemptRepo *repository.GameAttemptRepository
}

func NewGameController(gameService *service.GameService, attemptRepo *repository.GameAttemptRepository) *GameController {
	return &GameController{
		GameService: gameService,
		AttemptRepo: attemptRepo,
	}
}

// StartAttemptRequest 开始冒险请求
type StartAttemptRequest struct {
	PetID uint `json:"petId" binding:"required"`
}

// StartAttempt godoc
// @Summary 开始冒险
// @Description 前置检查（每日次数、宠物状态）通过后按历史战绩选定关卡并建立冒险记录
// @Tags 冒险
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body StartAttemptRequest true "宠物ID"
// @Success 201 {object} util.Response{data=service.StartAttemptResult} "冒险已开始"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "宠物不存在"
// @Failure 409 {object} util.Response "宠物状态不满足冒险条件"
// @Failure 429 {object} util.Response "今日冒险次数已用完"
// @Router /api/game/attempts [post]
func (c *GameController) StartAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.GameService.StartAttempt(claims.UserID, req.PetID)
	if err != nil {
		var unfit *util.PetUnfitError
		switch {
		case errors.Is(err, util.ErrDailyAttemptLimit):
			util.Error(ctx, http.StatusTooManyRequests, "今日冒险次数已用完")
		case errors.Is(err, util.ErrPetNotFound):
			util.NotFound(ctx)
		case errors.As(err, &unfit):
			util.Error(ctx, http.StatusConflict, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, result)
}

// EndAttemptRequest 结算冒险请求。Rewards 非空时覆盖服务端奖励表，
// 供运营补发等场景使用；普通结算不传，由规则快照计算。
type EndAttemptRequest struct {
	Win     bool                 `json:"win"`
	Rewards *service.RewardGrant `json:"rewards"`
}

// EndAttempt godoc
// @Summary 结算冒险
// @Description 写入胜负终态，同一事务内完成宠物属性变更、积分入账与发券
// @Tags 冒险
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "冒险记录ID"
// @Param   body body EndAttemptRequest true "冒险结果"
// @Success 200 {object} util.Response{data=model.GameAttempt} "结算完成"
// @Failure 404 {object} util.Response "冒险记录不存在"
// @Failure 409 {object} util.Response "冒险已结束"
// @Router /api/game/attempts/{id}/end [post]
func (c *GameController) EndAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attemptID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "无效的冒险记录ID")
		return
	}

	var req EndAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.GameService.EndAttempt(claims.UserID, uint(attemptID), req.Win, req.Rewards)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAttemptEnded):
			util.Conflict(ctx, "该冒险已结束")
		case errors.Is(err, util.ErrPetNotFound):
			util.Conflict(ctx, "宠物不存在，无法结算")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, attempt)
}

// AbortAttempt godoc
// @Summary 放弃冒险
// @Description 中途放弃，不改属性不发奖励，只占用当日次数
// @Tags 冒险
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "冒险记录ID"
// @Success 200 {object} util.Response{data=model.GameAttempt} "已放弃"
// @Failure 404 {object} util.Response "冒险记录不存在"
// @Failure 409 {object} util.Response "冒险已结束"
// @Router /api/game/attempts/{id}/abort [post]
func (c *GameController) AbortAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attemptID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "无效的冒险记录ID")
		return
	}

	attempt, err := c.GameService.AbortAttempt(claims.UserID, uint(attemptID))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAttemptEnded):
			util.Conflict(ctx, "该冒险已结束")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, attempt)
}

// GetQuota godoc
// @Summary 今日冒险次数
// @Description 查询今日已用与剩余的冒险次数
// @Tags 冒险
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.TodayQuota} "成功"
// @Router /api/game/quota [get]
func (c *GameController) GetQuota(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	quota, err := c.GameService.TodayQuota(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, quota)
}

// NextLevelRequest 查询下一关请求
type NextLevelRequest struct {
	PetID uint `form:"petId" binding:"required"`
}

// GetNextLevel godoc
// @Summary 查询下次冒险关卡
// @Description 按最近一次胜负记录预览下次冒险会进入的关卡与难度
// @Tags 冒险
// @Produce  json
// @Security ApiKeyAuth
// @Param   petId query int true "宠物ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/game/next-level [get]
func (c *GameController) GetNextLevel(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req NextLevelRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	level, err := c.GameService.SelectLevel(claims.UserID, req.PetID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	difficulty, _ := service.DifficultyForLevel(level)

	util.Success(ctx, gin.H{
		"level":           level,
		"monsterCount":    difficulty.MonsterCount,
		"speedMultiplier": difficulty.SpeedMultiplier,
	})
}

// ListAttempts godoc
// @Summary 冒险历史
// @Description 分页查询当前用户的冒险记录
// @Tags 冒险
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/game/attempts [get]
func (c *GameController) ListAttempts(ctx *gin.Context) {
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

	attempts, total, err := c.AttemptRepo.ListByUser(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  attempts,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
