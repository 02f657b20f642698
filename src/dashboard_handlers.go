package main

import (
	"ems/src/common"
	"net/http"

	"github.com/gin-gonic/gin"
)

func dashboardHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/dashboard", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			summary, err := common.BuildDashboard(userId, role)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": summary})
		})
	return g
}
