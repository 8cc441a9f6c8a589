package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"LIBRA-backend/internal/platform/apierr"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

// RequireAuth: Authorization: Bearer <token> を検証して context に sub/role を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" && isWebSocket(c) {
			// ブラウザの WebSocket はヘッダを付けられない
			if t := c.Query("access_token"); t != "" {
				h = "Bearer " + t
			}
		}
		if h == "" {
			apierr.Abort(c, apierr.Unauthorized("missing Authorization header"))
			return
		}

		scheme, tokenStr, ok := strings.Cut(h, " ")
		tokenStr = strings.TrimSpace(tokenStr)
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
			apierr.Abort(c, apierr.Unauthorized("invalid Authorization header"))
			return
		}

		// alg 固定（none攻撃とか回避）
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			apierr.Abort(c, apierr.Unauthorized("invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			apierr.Abort(c, apierr.Unauthorized("invalid claims"))
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			apierr.Abort(c, apierr.Unauthorized("missing sub"))
			return
		}
		role, _ := claims["role"].(string)

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

// RequireRole: 例) admin のみ許可したい時に追加
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r != "" {
			roleSet[r] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == "" {
			apierr.Abort(c, apierr.Forbidden("missing role"))
			return
		}
		if _, allowed := roleSet[role]; !allowed {
			apierr.Abort(c, apierr.Forbidden("forbidden"))
			return
		}
		c.Next()
	}
}

func isWebSocket(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}
