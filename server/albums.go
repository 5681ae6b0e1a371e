package server

import (
	"errors"
	"net/http"
	"strings"

	"galleria/logging"
	"galleria/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AlbumHandler serves the filtered album tree. The wildcard route passes
// the album path in the "album" parameter; the bare /albums route maps to
// the gallery root.
func AlbumHandler(repo *repository.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.Trim(c.Param("album"), "/")
		viewer := GetViewer(c)

		album, err := repo.GetAlbum(c.Request.Context(), name, viewer)
		if err != nil {
			if errors.Is(err, repository.ErrAlbumNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "album not found"})
				return
			}
			log.Error().
				Str(logging.FieldFunc, "server.albumHandler").
				Str("album", name).
				Err(err).
				Msg("")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, album)
	}
}
