package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/kitchen-orderflow/internal/catalog"
)

func registerMenuRoutes(r *gin.Engine) {
	r.GET("/menu", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": catalog.ByCategory(catalog.Category(c.Query("category")))})
	})
}
