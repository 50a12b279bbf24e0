package utils

import (
	"github.com/golang-jwt/jwt"
)

// Claims 是外部認證服務簽發的 token 內容
// 本服務只消費 token，不負責簽發
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.StandardClaims
}

// Identity 返回穩定的帳號識別，優先使用 email
func (c *Claims) Identity() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Username
}

// ParseToken 解析和驗證 JWT token
func ParseToken(token, secret string) (*Claims, error) {
	tokenClaims, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if tokenClaims != nil {
		if claims, ok := tokenClaims.Claims.(*Claims); ok && tokenClaims.Valid {
			return claims, nil
		}
	}

	return nil, err
}
