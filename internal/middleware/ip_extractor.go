package middleware

import (
	"luckyEnvelope/business/envelope"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
)

// IPExtractor resolves the request origin for c.RealIP(): the first
// forwarded-for entry when the header is present, the transport peer
// address otherwise.
func IPExtractor() echo.IPExtractor {
	return func(r *http.Request) string {
		peer := r.RemoteAddr
		if host, _, err := net.SplitHostPort(peer); err == nil {
			peer = host
		}

		return envelope.ClientIP(r.Header.Get(echo.HeaderXForwardedFor), peer)
	}
}
