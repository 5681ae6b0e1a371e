package server

import (
	"io"
	"net/http"
	"strings"

	"galleria/config"
	"galleria/logging"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// MediaProxy forwards media byte requests to the protected upstream. The
// upstream API key is injected here and never reaches the client; the
// session cookie travels upstream as a bearer token.
type MediaProxy struct {
	cfg    config.MediaConfig
	client *http.Client
}

func NewMediaProxy(cfg config.MediaConfig) *MediaProxy {
	return &MediaProxy{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.Timeout,
			},
		},
	}
}

func (p *MediaProxy) Handle(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("path"), "/")
	logg := logging.Enter(c.Request.Context(), "server.mediaProxy", map[string]any{"path": rel})

	req, err := http.NewRequestWithContext(
		c.Request.Context(),
		http.MethodGet,
		strings.TrimSuffix(p.cfg.Upstream, "/")+"/"+rel,
		nil,
	)
	if err != nil {
		logging.ExitErr(logg, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	req.Header.Set("X-API-Key", p.cfg.APIKey)
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	// Range is forwarded verbatim so upstream handles partial content.
	if rng := c.GetHeader("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logging.ExitErr(logg, err)
		p.setCORS(c)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		if hopByHop[name] {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}
	p.setCORS(c)
	c.Status(resp.StatusCode)

	// Streamed, never buffered. A client disconnect cancels the upstream
	// request through the context; the copy error is then expected.
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		log.Debug().
			Str(logging.FieldFunc, "server.mediaProxy").
			Str("path", rel).
			Err(err).
			Msg("stream aborted")
	}
	logging.Exit(logg, "ok", map[string]any{"status": resp.StatusCode})
}

// hopByHop headers belong to one connection and must not cross the proxy.
var hopByHop = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// HandlePreflight answers the credentialed CORS preflight for media
// requests.
func (p *MediaProxy) HandlePreflight(c *gin.Context) {
	p.setCORS(c)
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Range, Authorization")
	c.Status(http.StatusNoContent)
}

func (p *MediaProxy) setCORS(c *gin.Context) {
	origin := p.cfg.FrontendOrigin
	if origin == "" {
		origin = c.GetHeader("Origin")
	}
	if origin == "" {
		return
	}
	c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Vary", "Origin")
}
