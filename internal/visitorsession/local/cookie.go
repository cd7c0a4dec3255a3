package local

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieStore backs the local store with HTTP cookies for one request.
type CookieStore struct {
	c      *gin.Context
	secure bool
}

func NewCookieStore(c *gin.Context, secure bool) *CookieStore {
	return &CookieStore{c: c, secure: secure}
}

func (s *CookieStore) Get(key string) (string, bool) {
	value, err := s.c.Cookie(key)
	if err != nil {
		return "", false
	}
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

func (s *CookieStore) Set(key, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, value, maxAge, "/", "", s.secure, true)
}

func (s *CookieStore) Remove(key string) {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, "", -1, "/", "", s.secure, true)
}
