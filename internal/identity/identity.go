// Package identity issues the anonymous user id that namespaces every
// persisted entry and upstream call.
package identity

import (
	"crypto/rand"
	"io"
	"log"
	mathrand "math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CookieName   = "user_id"
	CookieMaxAge = 365 * 24 * time.Hour

	// MaxUserIDLength bounds ids accepted from the cookie. Longer values are
	// replaced so derived storage keys stay within the key column.
	MaxUserIDLength = 64
)

// CookieJar is where the identity cookie lives, normally the browser.
type CookieJar interface {
	Cookie(name string) (string, error)
	SetCookie(cookie *http.Cookie)
}

// Provider reads or creates the identity cookie.
type Provider struct {
	random io.Reader
	secure bool
	now    func() time.Time
}

type Option func(*Provider)

// WithRandom replaces the cryptographic source used for new ids.
func WithRandom(r io.Reader) Option {
	return func(p *Provider) { p.random = r }
}

// WithSecureCookie marks the cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(p *Provider) { p.secure = secure }
}

func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		random: rand.Reader,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetOrCreateUserID returns the id stored in the jar, creating and persisting
// a new one when the cookie is missing, empty or too long. created reports
// the latter.
func (p *Provider) GetOrCreateUserID(jar CookieJar) (userID string, created bool) {
	if value, err := jar.Cookie(CookieName); err == nil {
		value = strings.TrimSpace(value)
		if value != "" && len(value) <= MaxUserIDLength {
			return value, false
		}
		if len(value) > MaxUserIDLength {
			log.Printf("[Identity] Ignoring oversized user ID cookie (%d bytes)", len(value))
		}
	}

	userID = p.generate()
	jar.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    userID,
		Path:     "/",
		Expires:  p.now().Add(CookieMaxAge),
		MaxAge:   int(CookieMaxAge / time.Second),
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	log.Printf("[Identity] New user ID generated and stored in cookie: %s", userID)
	return userID, true
}

func (p *Provider) generate() string {
	id, err := uuid.NewRandomFromReader(p.random)
	if err != nil {
		log.Printf("[Identity] Secure random source failed, using fallback id: %v", err)
		return fallbackUUID()
	}
	return id.String()
}

// fallbackUUID builds a v4-shaped id from a non-cryptographic source. The id
// is a correlation key, not a credential.
func fallbackUUID() string {
	const template = "xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx"
	const hex = "0123456789abcdef"

	var b strings.Builder
	b.Grow(len(template))
	for _, c := range template {
		switch c {
		case 'x':
			b.WriteByte(hex[mathrand.IntN(16)])
		case 'y':
			b.WriteByte(hex[mathrand.IntN(4)|0x8])
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
