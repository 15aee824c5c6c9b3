// Package session issues and reads the signed login cookie and the one-shot
// flash cookie.
package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/innohub/pkg/models"
)

const (
	CookieName = "innohub_session"
	FlashName  = "innohub_flash"
)

var ErrNoSession = errors.New("no session")

// Claims carried by the session token.
type Claims struct {
	UserID int64       `json:"uid"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs session tokens with an HMAC secret.
type Manager struct {
	secret   []byte
	duration time.Duration
	secure   bool
	now      func() time.Time
}

func NewManager(secret string, duration time.Duration, secure bool) *Manager {
	return &Manager{secret: []byte(secret), duration: duration, secure: secure, now: time.Now}
}

// Issue sets the session cookie for u.
func (m *Manager) Issue(w http.ResponseWriter, u *models.User) error {
	now := m.now()
	exp := now.Add(m.duration)
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the claims of a valid session cookie, or ErrNoSession.
func (m *Manager) Read(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(c.Value, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if claims.UserID <= 0 {
		return nil, ErrNoSession
	}
	return claims, nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Flash levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
	LevelWarning = "warning"
)

type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// maxFlashes bounds the queue so the cookie stays well under browser limits.
const maxFlashes = 10

// AddFlash appends a message to the flash cookie. Messages queued earlier in
// the same request are kept; past maxFlashes the oldest are dropped.
func AddFlash(w http.ResponseWriter, r *http.Request, level, msg string) {
	flashes := peekFlashes(r)
	flashes = append(flashes, Flash{Level: level, Message: msg})
	if len(flashes) > maxFlashes {
		flashes = flashes[len(flashes)-maxFlashes:]
	}
	b, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	// later AddFlash calls in this request must see this message too
	setRequestCookie(r, FlashName, base64.RawURLEncoding.EncodeToString(b))
}

// PopFlashes returns the pending messages and expires the cookie.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := peekFlashes(r)
	if len(flashes) == 0 {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: FlashName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	setRequestCookie(r, FlashName, "")
	return flashes
}

func peekFlashes(r *http.Request) []Flash {
	c, err := r.Cookie(FlashName)
	if err != nil || c.Value == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(b, &flashes); err != nil {
		return nil
	}
	return flashes
}

func setRequestCookie(r *http.Request, name, value string) {
	cookies := r.Cookies()
	r.Header.Del("Cookie")
	for _, c := range cookies {
		if c.Name == name {
			continue
		}
		r.AddCookie(c)
	}
	if value != "" {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}
