// Package server exposes the album tree and the media proxy over HTTP.
package server

import (
	"errors"
	"net/http"

	"galleria/config"
	"galleria/repository"
	"galleria/variants"
	"galleria/walker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// NewRepository wires the classification rules, the variant resolver and
// the tree walker into the cached repository.
func NewRepository(cfg *config.Config) *repository.Repository {
	var reader variants.MetadataReader
	if cfg.Gallery.Exiftool.ResolvedPath != "" {
		reader = variants.ExiftoolReader{}
	}

	resolver := variants.NewResolver(cfg.Gallery.Folder, &cfg.Gallery.Rules, reader)
	builder := walker.NewBuilder(cfg.Gallery.Folder, &cfg.Gallery.Rules, resolver, cfg.Gallery.Walk.Parallelism)

	return repository.New(builder, cfg.Gallery.Folder, cfg.Gallery.Cache.TTL, cfg.Gallery.Walk.Timeout)
}

func NewRouter(cfg *config.Config, repo *repository.Repository) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(gin.Recovery())
	r.Use(ViewerContextMiddleware(NewJWTService(cfg.Auth.JWT.Secret)))

	proxy := NewMediaProxy(cfg.Media)

	api := r.Group("/api")
	api.GET("/albums", AlbumHandler(repo))
	api.GET("/albums/*album", AlbumHandler(repo))
	api.GET("/media/*path", proxy.Handle)
	api.OPTIONS("/media/*path", proxy.HandlePreflight)

	return r
}

// Server builds the router and blocks serving it until shutdown.
func Server(cfg *config.Config) error {
	repo := NewRepository(cfg)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           NewRouter(cfg, repo),
		ReadTimeout:       cfg.Server.Timeouts.Read,
		ReadHeaderTimeout: cfg.Server.Timeouts.Header,
		WriteTimeout:      cfg.Server.Timeouts.Write,
		IdleTimeout:       cfg.Server.Timeouts.Idle,
	}

	log.Info().Str("addr", cfg.Server.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
