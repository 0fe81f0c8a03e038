package controller

import (
	"errors"
	"petopia_backend/internal/service"
	"petopia_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CouponController struct {
	CouponService *service.CouponService
}

func NewCouponController(couponService *service.CouponService) *CouponController {
	return &CouponController{CouponService: couponService}
}

// ListMine godoc
// @Summary 我的优惠券
// @Description 查询当前用户持有的优惠券
// @Tags 优惠券
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Coupon} "成功"
// @Router /api/coupons [get]
func (c *CouponController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	coupons, err := c.CouponService.ListMine(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, coupons)
}

// ListTypes godoc
// @Summary 优惠券种类目录
// @Description 查询系统支持的优惠券种类
// @Tags 优惠券
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.CouponType} "成功"
// @Router /api/coupons/types [get]
func (c *CouponController) ListTypes(ctx *gin.Context) {
	types, err := c.CouponService.ListTypes()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, types)
}

// UseCoupon godoc
// @Summary 使用优惠券
// @Description 核销一张未使用的优惠券
// @Tags 优惠券
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "优惠券ID"
// @Success 200 {object} util.Response{data=model.Coupon} "核销成功"
// @Failure 404 {object} util.Response "优惠券不存在"
// @Failure 409 {object} util.Response "优惠券已使用"
// @Router /api/coupons/{id}/use [post]
func (c *CouponController) UseCoupon(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	couponID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "无效的优惠券ID")
		return
	}

	coupon, err := c.CouponService.UseCoupon(claims.UserID, uint(couponID))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCouponNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrCouponAlreadyUsed):
			util.Conflict(ctx, "该优惠券已被使用")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, coupon)
}
