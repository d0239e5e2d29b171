package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed session cookie.
type SessionConfig struct {
	Secret            string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "rightsdesk.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour
)

// SessionUser is the shape stored in session under "user".
type SessionUser struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session loads the session named by the signed cookie from Redis and saves it back after the
// handler runs. Cookies whose signature does not match Secret are ignored.
func Session(cfg SessionConfig, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := UnsignSessionID(cfg.Secret, c.Cookies(SessionCookieName))

		var data map[string]interface{}
		if sessionID != "" {
			b, err := rdb.Get(c.UserContext(), SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, &data)
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals("session_data", data)
		if u, ok := data["user"]; ok {
			c.Locals(userLocal, u)
		} else {
			c.Locals(userLocal, nil)
		}
		c.Locals("session_id", sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		if sid, _ := c.Locals("session_id").(string); sid != "" {
			updated, _ := c.Locals("session_data").(map[string]interface{})
			if len(updated) > 0 {
				b, _ := json.Marshal(updated)
				if err := rdb.Set(context.Background(), SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
					log.Error().Err(err).Msg("failed to persist session")
				}
			}
		}
		return nil
	}
}

// SignSessionID returns the cookie value "s:<id>.<sig>" with an HMAC-SHA256 signature.
func SignSessionID(secret, id string) string {
	return "s:" + id + "." + sessionSignature(secret, id)
}

// UnsignSessionID returns the session id in a signed cookie value, or "" if the signature is wrong.
func UnsignSessionID(secret, value string) string {
	if !strings.HasPrefix(value, "s:") {
		return ""
	}
	id, sig, ok := strings.Cut(value[2:], ".")
	if !ok || id == "" {
		return ""
	}
	if !hmac.Equal([]byte(sig), []byte(sessionSignature(secret, id))) {
		return ""
	}
	return id
}

func sessionSignature(secret, id string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(id))
	return base64.RawStdEncoding.EncodeToString(mac.Sum(nil))
}

// GetSessionID returns the current session ID from context.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("session_id").(string)
	return sid
}

// SetSessionUser stores the user in the session; it is persisted when the request finishes.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data, _ := c.Locals("session_data").(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	data["user"] = map[string]interface{}{
		"user_id":  user.UserID,
		"fullname": user.Fullname,
		"email":    user.Email,
		"role":     user.Role,
	}
	c.Locals("session_data", data)
	c.Locals(userLocal, data["user"])
}

// CurrentUser returns the typed session user.
func CurrentUser(c *fiber.Ctx) (SessionUser, bool) {
	m, ok := c.Locals(userLocal).(map[string]interface{})
	if !ok {
		return SessionUser{}, false
	}
	u := SessionUser{}
	u.UserID, _ = m["user_id"].(string)
	u.Fullname, _ = m["fullname"].(string)
	u.Email, _ = m["email"].(string)
	u.Role, _ = m["role"].(string)
	return u, u.UserID != ""
}

// CurrentUserID parses the session user's id; nil when absent or malformed.
func CurrentUserID(c *fiber.Ctx) *uuid.UUID {
	u, ok := CurrentUser(c)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(u.UserID)
	if err != nil {
		return nil
	}
	return &id
}

// RegenerateSessionID creates a new session ID for the request.
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals("session_id", newID)
	return newID
}

// DestroySession clears user and session data from Locals; caller clears cookie and Redis.
func DestroySession(c *fiber.Ctx) {
	c.Locals("session_data", make(map[string]interface{}))
	c.Locals(userLocal, nil)
	c.Locals("session_id", "")
}

// SessionCookieConfig returns the session cookie options.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}
