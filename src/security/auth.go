package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TradeScope is the scope claim a token must carry to place orders.
const TradeScope = "trade"

var (
	ErrTradingDisabled = errors.New("trade signing secret not configured")
	ErrInvalidToken    = errors.New("invalid token")
	ErrMissingScope    = errors.New("token lacks trade scope")
)

type AuthService struct {
	secret []byte
	now    func() time.Time
}

func NewAuthService(secret []byte) *AuthService {
	return &AuthService{secret: secret, now: time.Now}
}

// Enabled reports whether a signing secret is configured.
func (a *AuthService) Enabled() bool {
	return len(a.secret) > 0
}

// GenerateTradeToken issues an HS256 token for subject carrying the trade scope.
func (a *AuthService) GenerateTradeToken(subject string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", ErrTradingDisabled
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": TradeScope,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateTradeToken checks signature, expiry and scope, returning the subject.
func (a *AuthService) ValidateTradeToken(tokenString string) (string, error) {
	if !a.Enabled() {
		return "", ErrTradingDisabled
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if scope, _ := claims["scope"].(string); scope != TradeScope {
		return "", ErrMissingScope
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}
