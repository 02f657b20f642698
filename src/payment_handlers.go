package main

import (
	"ems/src/common"
	"ems/src/lib/aws"
	"ems/src/middlewares"
	"ems/src/models"
	"ems/src/types"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/applications/:id/payments", middlewares.RequireRole(types.ROLE_BRAND), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.SubmitPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			submission, err := common.SubmitPaymentForApplication(params.ID, &body)
			if submission == nil {
				ctx.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
				return
			}
			respondAfterTransition(ctx, http.StatusCreated, submission, err)
		}).
		GET("/applications/:id/payments", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var application models.StallApplication
			if err := applicationScopeForRole(ctx).
				Where("stall_applications.id = ?", params.ID).
				Preload("Payments").
				First(&application).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": common.ErrApplicationNotFound.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": application.Payments, "count": len(application.Payments)})
		}).
		GET("/applications/:id/payments/upload-url", middlewares.RequireRole(types.ROLE_BRAND), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			filename := ctx.Query("filename")
			if filename == "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
				return
			}
			url, key, err := aws.S3PresignProofUpload(params.ID, filename, 15*time.Minute)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url, "key": key}})
		}).
		GET("/applications/:id/proofs", middlewares.RequireRole(types.ROLE_ORGANISER, types.ROLE_MANAGER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			keys, err := aws.S3ListProofObjects(params.ID)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": keys, "count": len(keys)})
		}).
		GET("/payments/:id/proof", middlewares.RequireRole(types.ROLE_ORGANISER, types.ROLE_MANAGER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			submission, err := common.GetSubmission(params.ID)
			if err != nil {
				ctx.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
				return
			}
			if submission.ProofFileURL == nil || *submission.ProofFileURL == "" {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "no proof on file"})
				return
			}
			url, err := aws.S3PresignProofDownload(*submission.ProofFileURL, 15*time.Minute)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
		}).
		POST("/payments/:id/review", middlewares.RequireRole(types.ROLE_ORGANISER, types.ROLE_MANAGER), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.ReviewPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			reviewerId := ctx.GetUint("id")
			submission, application, err := common.ReviewPaymentSubmission(
				params.ID,
				types.PaymentStatus(body.Decision),
				reviewerId,
				body.RejectionReason,
			)
			if submission == nil {
				ctx.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
				return
			}
			respondAfterTransition(ctx, http.StatusOK, gin.H{
				"submission":  submission,
				"application": application,
			}, err)
		})
	return g
}
