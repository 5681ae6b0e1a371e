package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"galleria/classify"

	"github.com/rs/zerolog/log"
)

func (c *Config) TransformBeforeValidation() error {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Timeouts.Read == 0 {
		c.Server.Timeouts.Read = 10 * time.Second
	}
	if c.Server.Timeouts.Header == 0 {
		c.Server.Timeouts.Header = 5 * time.Second
	}
	if c.Server.Timeouts.Write == 0 {
		c.Server.Timeouts.Write = 30 * time.Second
	}
	if c.Server.Timeouts.Idle == 0 {
		c.Server.Timeouts.Idle = 60 * time.Second
	}

	if rulesUnset(c.Gallery.Rules) {
		log.Logger.Info().Msg("no classification rules configured, using defaults")
		c.Gallery.Rules = classify.DefaultRules()
	}

	if c.Gallery.Walk.Parallelism == 0 {
		c.Gallery.Walk.Parallelism = 4
	}
	if c.Gallery.Walk.Timeout == 0 {
		c.Gallery.Walk.Timeout = 30 * time.Second
	}
	if c.Gallery.Cache.TTL == 0 {
		c.Gallery.Cache.TTL = 15 * time.Second
	}
	if c.Gallery.Exiftool.Path == "" {
		c.Gallery.Exiftool.Path = "exiftool"
	}
	if c.Gallery.Exiftool.Timeout == 0 {
		c.Gallery.Exiftool.Timeout = 5 * time.Second
	}

	if c.Media.Timeout == 0 {
		c.Media.Timeout = 30 * time.Second
	}

	return nil
}

func (c *Config) TransformAfterValidation() error {
	abs, err := filepath.Abs(c.Gallery.Folder)
	if err != nil {
		return err
	}
	c.Gallery.Folder = abs

	if err := c.Gallery.Rules.Normalize(); err != nil {
		return err
	}

	// EXIF reading is best-effort: a missing binary disables it instead
	// of failing startup.
	resolved, err := exec.LookPath(c.Gallery.Exiftool.Path)
	if err != nil {
		log.Logger.Warn().
			Str("path", c.Gallery.Exiftool.Path).
			Msg("exiftool not found, embedded metadata disabled")
	} else {
		c.Gallery.Exiftool.ResolvedPath = resolved
	}

	if key := os.Getenv(APIKeyEnv); key != "" {
		c.Media.APIKey = key
	} else {
		c.Media.APIKey = DevAPIKey
		if c.Env == EnvProduction {
			log.Logger.Warn().
				Str("env", APIKeyEnv).
				Msg("media api key not set, using development default")
		}
	}

	if secret := os.Getenv(JWTSecretEnv); secret != "" {
		c.Auth.JWT.Secret = secret
	}

	return nil
}

func rulesUnset(r classify.Rules) bool {
	return len(r.SkipSuffix) == 0 &&
		len(r.SkipPrefix) == 0 &&
		len(r.SkipContains) == 0 &&
		len(r.RoleSuffix) == 0 &&
		len(r.RolePrefix) == 0 &&
		len(r.ValueBasedRoleSuffix) == 0 &&
		len(r.ValueBasedRolePrefix) == 0 &&
		len(r.FeaturePhotoSuffix) == 0 &&
		len(r.FeaturePhotoPrefix) == 0 &&
		len(r.ImageExtensions) == 0 &&
		len(r.MovieExtensions) == 0
}
