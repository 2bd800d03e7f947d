package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// DeviceIDKey is the gin context key holding the authenticated device id.
const DeviceIDKey = "device_id"

// DeviceClaims are the claims of a bus device token.
type DeviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// DeviceAuthMiddleware verifies the HS256 bearer token of a tap device and
// stores its device_id in the request context. An empty secret disables the check.
func DeviceAuthMiddleware(secret string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			abortUnauthorized(c, "missing device token")
			return
		}

		claims := &DeviceClaims{}
		_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil {
			abortUnauthorized(c, "invalid device token")
			return
		}
		if claims.DeviceID == "" {
			abortUnauthorized(c, "device token has no device_id")
			return
		}

		c.Set(DeviceIDKey, claims.DeviceID)
		c.Next()
	}
}

// DeviceID returns the authenticated device id, if the request carried a token.
func DeviceID(c *gin.Context) (string, bool) {
	id := c.GetString(DeviceIDKey)
	return id, id != ""
}

// NewDeviceToken signs a device token valid for ttl.
func NewDeviceToken(secret, deviceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := DeviceClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "code": "unauthorized"})
}
