package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/kanaal/shared/domain"
	internal_errors "github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
)

// Scope carried by identity gateway service tokens. Such tokens act on behalf
// of the gateway itself, not of a signed-in user.
const GatewayScope = "identity:admin"

type JwtService interface {
	NewToken(principal domain.Principal) (string, error)
	NewGatewayToken(subject domain.ExternalId) (string, error)
	DecodeToken(jwtStr string) (*jwt.Token, error)
	Principal(jwtStr string) (domain.Principal, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(principal domain.Principal) (string, error) {
	claims := jwt.MapClaims{
		"sub":   principal.SubjectId,
		"email": principal.Email,
		"exp":   time.Now().Add(j.ttl).Unix(),
	}
	return j.sign(claims)
}

func (j *Jwt) NewGatewayToken(subject domain.ExternalId) (string, error) {
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": GatewayScope,
		"exp":   time.Now().Add(j.ttl).Unix(),
	}
	return j.sign(claims)
}

func (j *Jwt) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", errors.New("Can't create token")
	}
	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]), StatusCode: http.StatusUnauthorized}
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		logger.Log.Debug("token rejected", "error", err)
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}

	if !token.Valid {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	return token, nil
}

// Principal decodes a user token issued by the identity gateway.
func (j *Jwt) Principal(jwtStr string) (domain.Principal, error) {
	token, err := j.DecodeToken(jwtStr)
	if err != nil {
		return domain.Principal{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, errInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return domain.Principal{}, errInvalidClaims
	}
	return domain.Principal{SubjectId: sub, Email: email}, nil
}

// IsGatewayToken reports whether a decoded token carries the gateway scope.
func IsGatewayToken(token *jwt.Token) bool {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	scope, _ := claims["scope"].(string)
	return scope == GatewayScope
}

var errInvalidClaims = &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
