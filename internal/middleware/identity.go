package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/caltrack/web/internal/identity"
	"github.com/pageza/caltrack/web/internal/session"
)

// SessionKey is the gin context key holding the *session.Session.
const SessionKey = "session"

type ginCookieJar struct {
	c *gin.Context
}

func (j ginCookieJar) Cookie(name string) (string, error) {
	return j.c.Cookie(name)
}

func (j ginCookieJar) SetCookie(cookie *http.Cookie) {
	http.SetCookie(j.c.Writer, cookie)
}

// Identity makes sure every request carries an anonymous user id cookie and
// exposes the resulting session to handlers.
func Identity(provider *identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, created := provider.GetOrCreateUserID(ginCookieJar{c: c})
		c.Set(SessionKey, session.New(userID, created))
		c.Next()
	}
}

// CurrentSession returns the session set by Identity, or nil.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
