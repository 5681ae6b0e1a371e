package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

func (c *Config) Validate() error {
	var verr ValidationErrors

	c.Server.validate(&verr, "server")
	c.Gallery.validate(&verr, "gallery")
	c.Media.validate(&verr, "media")
	c.Auth.validate(&verr, "auth", c.Env)

	if verr.HasErrors() {
		return &verr
	}
	return nil
}

func (cfg *ServerConfig) validate(v *ValidationErrors, path string) {
	requireString(v, path+"/addr", cfg.Addr)

	checkDuration(v, path+"/timeouts/read", cfg.Timeouts.Read)
	checkDuration(v, path+"/timeouts/header", cfg.Timeouts.Header)
	checkDuration(v, path+"/timeouts/write", cfg.Timeouts.Write)
	checkDuration(v, path+"/timeouts/idle", cfg.Timeouts.Idle)
}

func (g *GalleryConfig) validate(v *ValidationErrors, path string) {
	checkDir(path+"/folder", g.Folder, true, v)

	if len(g.Rules.ImageExtensions) == 0 && len(g.Rules.MovieExtensions) == 0 {
		err := errors.New("no media extensions configured")
		logConfigError(path+"/rules/extensions", nil, err)
		v.Add(err)
	} else {
		logConfigOK(path+"/rules/extensions", map[string]int{
			"image": len(g.Rules.ImageExtensions),
			"movie": len(g.Rules.MovieExtensions),
		})
	}

	if g.Walk.Parallelism <= 0 {
		err := errors.New("parallelism must be > 0")
		logConfigError(path+"/walk/parallelism", g.Walk.Parallelism, err)
		v.Add(err)
	} else if g.Walk.Parallelism > 32 {
		err := errors.New("parallelism too high")
		logConfigError(path+"/walk/parallelism", g.Walk.Parallelism, err)
		v.Add(err)
	} else {
		logConfigOK(path+"/walk/parallelism", g.Walk.Parallelism)
	}

	checkDuration(v, path+"/walk/timeout", g.Walk.Timeout)
	checkDuration(v, path+"/cache/ttl", g.Cache.TTL)
	checkDuration(v, path+"/exiftool/timeout", g.Exiftool.Timeout)
}

func (m *MediaConfig) validate(v *ValidationErrors, path string) {
	if !requireString(v, path+"/upstream", m.Upstream) {
		return
	}

	u, err := url.Parse(m.Upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = errors.New("must be an absolute http(s) url")
		}
		logConfigError(path+"/upstream", m.Upstream, err)
		v.Add(err)
	} else {
		logConfigOK(path+"/upstream", m.Upstream)
	}

	checkDuration(v, path+"/timeout", m.Timeout)

	if m.FrontendOrigin != "" {
		logConfigOK(path+"/frontend_origin", m.FrontendOrigin)
	} else {
		log.Logger.Info().
			Str("config", path+"/frontend_origin").
			Msg("frontend origin not set, echoing request origin")
	}
}

func (a *AuthConfig) validate(v *ValidationErrors, path string, env Environment) {
	if a.JWT.Secret == "" && os.Getenv(JWTSecretEnv) == "" {
		if env == EnvProduction {
			err := errors.New("jwt secret must be set (yaml or " + JWTSecretEnv + ")")
			logConfigError(path+"/jwt/secret", "", err)
			v.Add(err)
			return
		}
		log.Logger.Warn().
			Str("config", path+"/jwt/secret").
			Msg("jwt secret not set, sessions disabled")
		return
	}
	logConfigOK(path+"/jwt/secret", "***")
}

type ValidationErrors struct {
	errors []error
}

func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.errors = append(v.errors, err)
	}
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range v.errors {
		sb.WriteString(" - ")
		sb.WriteString(err.Error())
		sb.WriteRune('\n')
	}
	return sb.String()
}

func errRequired(field string) error {
	return fmt.Errorf("%s is required", field)
}

func requireString(v *ValidationErrors, path string, value string) bool {
	if strings.TrimSpace(value) == "" {
		err := errRequired(path)
		logConfigError(path, value, err)
		v.Add(err)
		return false
	}
	logConfigOK(path, value)
	return true
}

func checkDuration(v *ValidationErrors, path string, d time.Duration) {
	if d <= 0 {
		err := errors.New("must be > 0")
		logConfigError(path, d, err)
		v.Add(fmt.Errorf("%s %w", path, err))
	} else {
		logConfigOK(path, d)
	}
}

func checkDir(pathKey string, dir string, required bool, v *ValidationErrors) {
	if dir == "" {
		if required {
			err := errors.New("directory must be set")
			logConfigError(pathKey, dir, err)
			v.Add(fmt.Errorf("%s: %w", pathKey, err))
		} else {
			log.Info().Str("config", pathKey).Msg("directory not set (optional)")
		}
		return
	}

	info, err := os.Stat(dir)
	if err != nil {
		if required {
			logConfigError(pathKey, dir, err)
			v.Add(fmt.Errorf("%s: %w", pathKey, err))
		} else {
			log.Warn().Str("config", pathKey).Str("value", dir).Err(err).Msg("optional directory does not exist")
		}
		return
	}

	if !info.IsDir() {
		err := errors.New("not a directory")
		if required {
			logConfigError(pathKey, dir, err)
			v.Add(fmt.Errorf("%s: %w", pathKey, err))
		} else {
			log.Warn().
				Str("config", pathKey).
				Str("value", dir).
				Msg("optional path exists but is not a directory")
		}
		return
	}

	logConfigOK(pathKey, dir)
}

func logConfigOK(path string, value any) {
	log.Logger.Info().
		Str("config", path).
		Interface("value", value).
		Msg("config set")
}

func logConfigError(path string, value any, err error) {
	log.Logger.Error().
		Str("config", path).
		Interface("value", value).
		Err(err).
		Msg("invalid config value")
}
