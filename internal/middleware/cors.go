package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured origins to call the portal with credentials.
// An empty list or "*" allows any origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", CSRFHeaderName, RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", CSRFHeaderName, RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	cleaned := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			cleaned = append(cleaned, origin)
		}
	}

	if len(cleaned) == 0 || (len(cleaned) == 1 && cleaned[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = cleaned
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}
