package main

import (
	"ems/src/common"
	"ems/src/config"
	"ems/src/db"
	"ems/src/middlewares"
	"ems/src/models"
	"ems/src/types"
	"ems/src/utils"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// statusForDomainError maps workflow errors to HTTP statuses. Dispatch
// failures are not mapped here; the triggering change is already
// committed and handlers report them alongside the payload.
func statusForDomainError(err error) int {
	switch {
	case errors.Is(err, common.ErrApplicationNotFound),
		errors.Is(err, common.ErrSubmissionNotFound),
		errors.Is(err, common.ErrStallNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConcurrentModification),
		errors.Is(err, common.ErrDuplicateSubmission),
		errors.Is(err, common.ErrDuplicateApplication),
		errors.Is(err, common.ErrStallUnavailable):
		return http.StatusConflict
	case errors.As(err, new(*common.InvalidTransitionError)):
		return http.StatusConflict
	case errors.Is(err, common.ErrPaymentNotExpected),
		errors.Is(err, common.ErrInvalidState),
		errors.Is(err, common.ErrReasonRequired):
		return http.StatusUnprocessableEntity
	}
	return http.StatusUnprocessableEntity
}

func respondAfterTransition(ctx *gin.Context, status int, payload any, err error) {
	if err == nil {
		ctx.JSON(status, gin.H{"data": payload})
		return
	}
	var dispatchErr *common.DispatchError
	if errors.As(err, &dispatchErr) {
		ctx.JSON(status, gin.H{"data": payload, "warning": dispatchErr.Error()})
		return
	}
	ctx.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
}

func applicationScopeForRole(ctx *gin.Context) *gorm.DB {
	userId := ctx.GetUint("id")
	role := ctx.GetString("role")
	tx := db.GetDb().Model(&models.StallApplication{})
	switch role {
	case types.ROLE_BRAND:
		return tx.Where("stall_applications.brand_id = ?", userId)
	case types.ROLE_ORGANISER:
		return tx.
			Joins("JOIN exhibitions ON exhibitions.id = stall_applications.exhibition_id").
			Where("exhibitions.organiser_id = ?", userId)
	default:
		return tx
	}
}

func applicationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/applications", middlewares.RequireRole(types.ROLE_BRAND), func(ctx *gin.Context) {
			var body types.CreateApplicationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			brandId := ctx.GetUint("id")
			application, err := common.CreateStallApplication(brandId, &body)
			if application == nil {
				ctx.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
				return
			}
			respondAfterTransition(ctx, http.StatusCreated, application, err)
		}).
		GET("/applications", func(ctx *gin.Context) {
			var filters types.ApplicationsQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var applications []models.StallApplication
			tx := utils.ApplyApplicationFilters(applicationScopeForRole(ctx), &filters)
			if err := tx.
				Preload("Brand").
				Preload("Stall").
				Preload("Exhibition").
				Order("stall_applications.created_at DESC").
				Limit(100).
				Find(&applications).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": applications, "count": len(applications)})
		}).
		GET("/applications/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var application models.StallApplication
			if err := applicationScopeForRole(ctx).
				Where("stall_applications.id = ?", params.ID).
				Preload("Brand").
				Preload("Stall").
				Preload("Exhibition").
				Preload("Payments").
				First(&application).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrApplicationNotFound.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": application})
		}).
		GET("/applications/:id/transitions", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var application models.StallApplication
			if err := applicationScopeForRole(ctx).
				Where("stall_applications.id = ?", params.ID).
				First(&application).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrApplicationNotFound.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data": gin.H{
					"status":      application.Status,
					"transitions": common.AllowedTransitions(application.Status),
				},
			})
		}).
		POST("/applications/:id/approve", middlewares.RequireRole(types.ROLE_ORGANISER, types.ROLE_MANAGER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.ApproveApplicationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil && ctx.Request.ContentLength > 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var deadline *time.Time
			if body.Deadline != nil {
				parsed, err := time.Parse(config.TIME_PARSE_FORMAT, *body.Deadline)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				deadline = &parsed
			}
			application, err := common.ApproveApplication(params.ID, deadline)
			if application == nil {
				ctx.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
				return
			}
			respondAfterTransition(ctx, http.StatusOK, application, err)
		}).
		POST("/applications/:id/reject", middlewares.RequireRole(types.ROLE_ORGANISER, types.ROLE_MANAGER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			application, err := common.RejectApplication(params.ID)
			if application == nil {
				ctx.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
				return
			}
			respondAfterTransition(ctx, http.StatusOK, application, err)
		}).
		POST("/applications/:id/reopen", middlewares.RequireRole(types.ROLE_ORGANISER, types.ROLE_MANAGER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			application, err := common.ReopenApplication(params.ID)
			if application == nil {
				ctx.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
				return
			}
			respondAfterTransition(ctx, http.StatusOK, application, err)
		})
	return g
}
