package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/kitchen-orderflow/internal/validation"
)

func registerFavoritesRoutes(r *gin.Engine, cfg HandlerConfig, v *validatorv10.Validate) {
	g := r.Group("/favorites", requireAuth(cfg))

	g.GET("", func(c *gin.Context) {
		ids, err := cfg.Favorites.List(c.Request.Context(), identity(c).ID)
		if err != nil {
			respondError(c, cfg.Logger, "get_favorites", "Failed to get favorites", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorites": ids})
	})

	g.POST("", func(c *gin.Context) {
		var req validation.FavoriteRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		ids, err := cfg.Favorites.Add(c.Request.Context(), identity(c).ID, req.ItemID)
		if err != nil {
			respondError(c, cfg.Logger, "add_favorite", "Failed to add to favorites", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorites": ids})
	})

	g.DELETE("/:itemId", func(c *gin.Context) {
		ids, err := cfg.Favorites.Remove(c.Request.Context(), identity(c).ID, c.Param("itemId"))
		if err != nil {
			respondError(c, cfg.Logger, "remove_favorite", "Failed to remove from favorites", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorites": ids})
	})
}
