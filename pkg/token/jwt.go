// Package token 提供了对入站 Bearer JWT 的验证能力。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingObjectID 表示 token 合法但缺少标识用户的 oid 声明。
// 调用方必须把这种情况当作未认证处理（fail closed）。
var ErrMissingObjectID = errors.New("token is missing the oid claim")

// Claims 定义了我们关心的身份提供方声明。
// ObjectID 是 Entra 里用户的对象 ID，也是团队目录查询的用户标识。
type Claims struct {
	ObjectID string `json:"oid"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier 负责验证 Bearer token 并提取用户身份。
// 密钥解析通过可注入的 jwt.Keyfunc 完成：生产环境接身份提供方的签名密钥，
// 测试环境用对称密钥即可。
type Verifier struct {
	keyFunc  jwt.Keyfunc
	issuer   string
	audience string
}

// NewVerifier 创建一个使用 HMAC 共享密钥的 Verifier。
func NewVerifier(secret, issuer, audience string) *Verifier {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}
	return NewVerifierWithKeyfunc(keyFunc, issuer, audience)
}

// NewVerifierWithKeyfunc 创建一个使用自定义密钥解析逻辑的 Verifier。
func NewVerifierWithKeyfunc(keyFunc jwt.Keyfunc, issuer, audience string) *Verifier {
	return &Verifier{keyFunc: keyFunc, issuer: issuer, audience: audience}
}

// Verify 验证给定的 token 字符串。
// 签名、签发者、受众任一不匹配或已过期都会返回错误；oid 缺失同样视为无效。
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		v.keyFunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(3*time.Second),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ObjectID == "" {
		return nil, ErrMissingObjectID
	}
	return claims, nil
}
