package main

import (
	"ems/src/db"
	"ems/src/middlewares"
	"ems/src/models"
	"ems/src/types"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// exhibitionHandlers expose the published catalog read-only. Shoppers
// can additionally star exhibitions they want to follow.
func exhibitionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/exhibitions", func(ctx *gin.Context) {
			var exhibitions []models.Exhibition
			if err := db.GetDb().
				Model(&models.Exhibition{}).
				Where(&models.Exhibition{Status: types.EXHIBITION_PUBLISHED}).
				Order("starts_at ASC").
				Limit(100).
				Find(&exhibitions).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": exhibitions, "count": len(exhibitions)})
		}).
		GET("/exhibitions/:slug", func(ctx *gin.Context) {
			slugParam := ctx.Params.ByName("slug")
			var exhibition models.Exhibition
			if err := db.GetDb().
				Model(&models.Exhibition{}).
				Where(&models.Exhibition{Slug: slugParam}).
				Preload("Stalls").
				First(&exhibition).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": exhibition})
		}).
		GET("/exhibitions/:slug/stalls", func(ctx *gin.Context) {
			slugParam := ctx.Params.ByName("slug")
			var exhibition models.Exhibition
			if err := db.GetDb().
				Model(&models.Exhibition{}).
				Select("id").
				Where(&models.Exhibition{Slug: slugParam}).
				First(&exhibition).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			var stalls []models.Stall
			tx := db.GetDb().
				Model(&models.Stall{}).
				Where("exhibition_id = ?", exhibition.ID)
			if ctx.Query("available") == "true" {
				tx = tx.Where("status = ?", types.STALL_AVAILABLE)
			}
			if err := tx.Find(&stalls).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": stalls, "count": len(stalls)})
		}).
		POST("/exhibitions/:slug/favorite", middlewares.RequireRole(types.ROLE_SHOPPER), func(ctx *gin.Context) {
			slugParam := ctx.Params.ByName("slug")
			shopperId := ctx.GetUint("id")
			var favorite models.Favorite
			err := db.GetDb().Transaction(func(tx *gorm.DB) error {
				var exhibition models.Exhibition
				if err := tx.Select("id").Where(&models.Exhibition{Slug: slugParam}).First(&exhibition).Error; err != nil {
					return err
				}
				favorite = models.Favorite{
					ShopperID:    shopperId,
					ExhibitionID: exhibition.ID,
				}
				return tx.Create(&favorite).Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "exhibition not found"})
					return
				}
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": favorite})
		}).
		DELETE("/exhibitions/:slug/favorite", middlewares.RequireRole(types.ROLE_SHOPPER), func(ctx *gin.Context) {
			slugParam := ctx.Params.ByName("slug")
			shopperId := ctx.GetUint("id")
			var exhibition models.Exhibition
			if err := db.GetDb().Select("id").Where(&models.Exhibition{Slug: slugParam}).First(&exhibition).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "exhibition not found"})
				return
			}
			res := db.GetDb().
				Where("shopper_id = ? AND exhibition_id = ?", shopperId, exhibition.ID).
				Delete(&models.Favorite{})
			if res.Error != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "favorite not found"})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
