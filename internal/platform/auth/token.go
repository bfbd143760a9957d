package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TokenParam is the field, header, query parameter and cookie name that may
// carry the session token.
const TokenParam = "token"

// maxTokenBody bounds how much of a request body is buffered while looking
// for a token.
const maxTokenBody = 1 << 20

// TokenSource returns the session token carried by one part of the request,
// or "" when that part has none.
type TokenSource func(c echo.Context) string

// DefaultTokenSources is the lookup order: body, header, query, cookie.
var DefaultTokenSources = []TokenSource{FromBody, FromHeader, FromQuery, FromCookie}

// ExtractToken returns the first non-empty token found by sources, tried in
// order. With no sources the defaults are used.
func ExtractToken(c echo.Context, sources ...TokenSource) string {
	if len(sources) == 0 {
		sources = DefaultTokenSources
	}
	for _, src := range sources {
		if tok := strings.TrimSpace(src(c)); tok != "" {
			return tok
		}
	}
	return ""
}

// FromBody reads a "token" field from a JSON body. The body is restored so
// handlers can bind it afterwards.
func FromBody(c echo.Context) string {
	req := c.Request()
	if req.Body == nil || req.Body == http.NoBody {
		return ""
	}
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return ""
	}

	orig := req.Body
	raw, err := io.ReadAll(io.LimitReader(orig, maxTokenBody))
	req.Body = readCloser{io.MultiReader(bytes.NewReader(raw), orig), orig}
	if err != nil || len(raw) == 0 || len(raw) == maxTokenBody {
		return ""
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Token
}

type readCloser struct {
	io.Reader
	io.Closer
}

// FromHeader reads the "token" header, falling back to an
// "Authorization: Bearer" header.
func FromHeader(c echo.Context) string {
	h := c.Request().Header
	if tok := h.Get(TokenParam); tok != "" {
		return tok
	}
	parts := strings.SplitN(h.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// FromQuery reads the "token" query parameter.
func FromQuery(c echo.Context) string {
	return c.QueryParam(TokenParam)
}

// FromCookie reads the "token" cookie.
func FromCookie(c echo.Context) string {
	cookie, err := c.Cookie(TokenParam)
	if err != nil {
		return ""
	}
	return cookie.Value
}
