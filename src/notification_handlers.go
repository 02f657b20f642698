package main

import (
	"ems/src/db"
	"ems/src/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func notificationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/notifications", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			tx := db.GetDb().
				Model(&models.Notification{}).
				Where("user_id = ?", userId)
			if ctx.Query("unread") == "true" {
				tx = tx.Where("is_read = ?", false)
			}
			var notifications []models.Notification
			if err := tx.
				Order("created_at DESC").
				Limit(100).
				Find(&notifications).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": notifications, "count": len(notifications)})
		}).
		GET("/notifications/unread-count", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var count int64
			if err := db.GetDb().
				Model(&models.Notification{}).
				Where("user_id = ? AND is_read = ?", userId, false).
				Count(&count).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": count})
		}).
		POST("/notifications/:id/read", func(ctx *gin.Context) {
			notificationId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			res := db.GetDb().
				Model(&models.Notification{}).
				Where("id = ? AND user_id = ?", notificationId, userId).
				Update("is_read", true)
			if res.Error != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/notifications/read-all", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			if err := db.GetDb().
				Model(&models.Notification{}).
				Where("user_id = ? AND is_read = ?", userId, false).
				Update("is_read", true).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
