package controller

import (
	"errors"
	"net/http"
	"petopia_backend/internal/model"
	"petopia_backend/internal/service"
	"petopia_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PetController struct {
	PetService *service.PetService
}

func NewPetController(petService *service.PetService) *PetController {
	return &PetController{PetService: petService}
}

// AdoptPetRequest 领养宠物请求
type AdoptPetRequest struct {
	Name string `json:"name" binding:"required,max=32"`
}

// AdoptPet godoc
// @Summary 领养宠物
// @Description 为当前用户创建一只宠物，每个用户只能领养一只
// @Tags 宠物
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body AdoptPetRequest true "宠物名字"
// @Success 201 {object} util.Response{data=model.Pet} "领养成功"
// @Failure 409 {object} util.Response "已有宠物"
// @Router /api/pets [post]
func (c *PetController) AdoptPet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AdoptPetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pet, err := c.PetService.AdoptPet(claims.UserID, req.Name)
	if err != nil {
		if errors.Is(err, util.ErrPetAlreadyAdopted) {
			util.Conflict(ctx, "每个用户只能领养一只宠物")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, pet)
}

// GetMyPet godoc
// @Summary 我的宠物
// @Description 查询当前用户的宠物及其属性
// @Tags 宠物
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.Pet} "成功"
// @Failure 404 {object} util.Response "尚未领养宠物"
// @Router /api/pets/mine [get]
func (c *PetController) GetMyPet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	pet, err := c.PetService.GetMyPet(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrPetNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, pet)
}

func (c *PetController) petIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "无效的宠物ID")
		return 0, false
	}
	return uint(id), true
}

func (c *PetController) respondCare(ctx *gin.Context, pet *model.Pet, err error) {
	if err != nil {
		if errors.Is(err, util.ErrPetNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, pet)
}

// FeedPet godoc
// @Summary 喂食
// @Description 提升宠物的饥饿度
// @Tags 宠物
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "宠物ID"
// @Success 200 {object} util.Response{data=model.Pet} "成功"
// @Router /api/pets/{id}/feed [post]
func (c *PetController) FeedPet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	petID, ok := c.petIDParam(ctx)
	if !ok {
		return
	}
	pet, err := c.PetService.FeedPet(claims.UserID, petID)
	c.respondCare(ctx, pet, err)
}

// PlayWithPet godoc
// @Summary 玩耍
// @Description 提升心情，消耗少量体力
// @Tags 宠物
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "宠物ID"
// @Success 200 {object} util.Response{data=model.Pet} "成功"
// @Router /api/pets/{id}/play [post]
func (c *PetController) PlayWithPet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	petID, ok := c.petIDParam(ctx)
	if !ok {
		return
	}
	pet, err := c.PetService.PlayWithPet(claims.UserID, petID)
	c.respondCare(ctx, pet, err)
}

// CleanPet godoc
// @Summary 清洁
// @Description 提升清洁度
// @Tags 宠物
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "宠物ID"
// @Success 200 {object} util.Response{data=model.Pet} "成功"
// @Router /api/pets/{id}/clean [post]
func (c *PetController) CleanPet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	petID, ok := c.petIDParam(ctx)
	if !ok {
		return
	}
	pet, err := c.PetService.CleanPet(claims.UserID, petID)
	c.respondCare(ctx, pet, err)
}

// RestPet godoc
// @Summary 休息
// @Description 恢复体力
// @Tags 宠物
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "宠物ID"
// @Success 200 {object} util.Response{data=model.Pet} "成功"
// @Router /api/pets/{id}/rest [post]
func (c *PetController) RestPet(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	petID, ok := c.petIDParam(ctx)
	if !ok {
		return
	}
	pet, err := c.PetService.RestPet(claims.UserID, petID)
	c.respondCare(ctx, pet, err)
}

// CheckAdventureReadiness godoc
// @Summary 冒险条件检查
// @Description 检查宠物属性是否满足冒险门槛，不满足时返回拦截的属性名
// @Tags 宠物
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "宠物ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/pets/{id}/readiness [get]
func (c *PetController) CheckAdventureReadiness(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	petID, ok := c.petIDParam(ctx)
	if !ok {
		return
	}

	ready, attr, err := c.PetService.CanStartAdventure(petID)
	if err != nil {
		if errors.Is(err, util.ErrPetNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"ready":             ready,
		"blockingAttribute": attr,
	})
}

// UploadAvatar godoc
// @Summary 上传宠物头像
// @Description 上传图片并更新宠物头像地址
// @Tags 宠物
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "宠物ID"
// @Param   file formData file true "头像图片"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "文件不是图片"
// @Router /api/pets/{id}/avatar [post]
func (c *PetController) UploadAvatar(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	petID, ok := c.petIDParam(ctx)
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	url, err := c.PetService.UpdateAvatar(
		ctx.Request.Context(),
		claims.UserID,
		petID,
		fileHeader.Filename,
		file,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPetNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidAvatarImage):
			util.Error(ctx, http.StatusBadRequest, "仅支持图片文件")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"avatar": url})
}
