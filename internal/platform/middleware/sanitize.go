package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// maxHeaderValueSize is the maximum allowed size for any single header value.
const maxHeaderValueSize = 8192

// Sanitize returns middleware that rejects requests carrying null bytes,
// path traversal sequences, or header injection before they reach any
// handler. The per-component validators (filter builder, receipt resolver)
// repeat their own checks independently; this layer only cuts off the
// obviously hostile traffic early.
func Sanitize(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			rawPath := req.URL.RawPath
			if rawPath == "" {
				rawPath = path
			}

			if containsPathTraversal(path) || containsPathTraversal(rawPath) {
				return reject(c, "path traversal detected")
			}
			if containsNullByte(path) || containsNullByte(rawPath) {
				return reject(c, "null byte detected in path")
			}

			for name, values := range req.Header {
				for _, v := range values {
					if len(v) > maxHeaderValueSize {
						return reject(c, "header value exceeds maximum size: "+name)
					}
					if strings.ContainsAny(v, "\r\n") {
						return reject(c, "header injection detected: "+name)
					}
				}
			}

			for key, values := range req.URL.Query() {
				for _, v := range values {
					if containsNullByte(v) || containsNullByte(key) {
						logger.Warn().
							Str("param", key).
							Str("path", path).
							Str("remote_ip", c.RealIP()).
							Msg("null byte in query parameter")
						return reject(c, "null byte detected in query parameter")
					}
				}
			}

			return next(c)
		}
	}
}

func reject(c echo.Context, reason string) error {
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func containsPathTraversal(s string) bool {
	return strings.Contains(s, "../") || strings.Contains(s, "..\\") ||
		strings.Contains(strings.ToLower(s), "%2e%2e")
}

func containsNullByte(s string) bool {
	return strings.ContainsRune(s, 0) || strings.Contains(strings.ToLower(s), "%00")
}
