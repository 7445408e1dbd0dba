// Package auth issues and verifies the signed tokens handed to clients: the
// session token carrying an effective-entitlement snapshot, and the narrower
// payment-intent token binding a subject to a chosen plan and price.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vtm/internal/domain/entitlement"
	"vtm/internal/shared/biztime"
	apperrors "vtm/internal/shared/errors"
)

type TokenType string

const (
	TokenTypeSession       TokenType = "session"
	TokenTypePaymentIntent TokenType = "payment_intent"
)

// SessionClaims is the session token payload: a short-lived snapshot of the
// effective entitlement, recomputed fresh on every issuance and never
// persisted.
type SessionClaims struct {
	CustomerID        string     `json:"cid"`
	SubjectID         string     `json:"sub_id"`
	PlanID            string     `json:"plan"`
	IsPro             bool       `json:"is_pro"`
	PlanExpiry        *time.Time `json:"plan_expiry,omitempty"`
	DailyLimitSeconds int        `json:"daily_limit_seconds"`
	TokenType         TokenType  `json:"token_type"`
	jwt.RegisteredClaims
}

// PaymentIntentClaims binds a subject to a chosen plan and its catalog price
// for hand-off into payment capture, with a much shorter validity.
type PaymentIntentClaims struct {
	CustomerID string    `json:"cid"`
	SubjectID  string    `json:"sub_id"`
	PlanID     string    `json:"plan"`
	Price      string    `json:"price"`
	TokenType  TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies tokens with a process-wide HS256 key loaded
// once at startup. No key rotation.
type JWTService struct {
	secret              []byte
	sessionExpHours     int
	paymentIntentExpMin int
}

func NewJWTService(secret string, sessionExpHours, paymentIntentExpMinutes int) *JWTService {
	return &JWTService{
		secret:              []byte(secret),
		sessionExpHours:     sessionExpHours,
		paymentIntentExpMin: paymentIntentExpMinutes,
	}
}

// IssueSession signs a session token for the given identity and effective
// entitlement.
func (s *JWTService) IssueSession(subjectID, customerID string, eff entitlement.Effective) (string, error) {
	now := biztime.NowUTC()
	exp := now.Add(time.Duration(s.sessionExpHours) * time.Hour)

	claims := &SessionClaims{
		CustomerID:        customerID,
		SubjectID:         subjectID,
		PlanID:            eff.PlanID,
		IsPro:             eff.IsPro,
		PlanExpiry:        eff.PlanExpiry,
		DailyLimitSeconds: eff.DailyLimitSeconds,
		TokenType:         TokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// IssuePaymentIntent signs a payment-intent token binding subject, plan and
// price.
func (s *JWTService) IssuePaymentIntent(subjectID, customerID, planID, price string) (string, error) {
	now := biztime.NowUTC()
	exp := now.Add(time.Duration(s.paymentIntentExpMin) * time.Minute)

	claims := &PaymentIntentClaims{
		CustomerID: customerID,
		SubjectID:  subjectID,
		PlanID:     planID,
		Price:      price,
		TokenType:  TokenTypePaymentIntent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign payment intent token: %w", err)
	}
	return signed, nil
}

// VerifySession checks signature and expiry of a session token, yielding the
// decoded claims or a typed auth error.
func (s *JWTService) VerifySession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.verify(tokenString, claims, "session token"); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeSession {
		return nil, apperrors.NewTokenMalformedError("session token")
	}
	return claims, nil
}

// VerifyPaymentIntent checks signature and expiry of a payment-intent token.
func (s *JWTService) VerifyPaymentIntent(tokenString string) (*PaymentIntentClaims, error) {
	claims := &PaymentIntentClaims{}
	if err := s.verify(tokenString, claims, "payment intent token"); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypePaymentIntent {
		return nil, apperrors.NewTokenMalformedError("payment intent token")
	}
	return claims, nil
}

func (s *JWTService) verify(tokenString string, claims jwt.Claims, tokenName string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return apperrors.NewTokenExpiredError(tokenName)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return apperrors.NewTokenMalformedError(tokenName)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return apperrors.NewSignatureInvalidError(tokenName)
		default:
			return apperrors.NewTokenMalformedError(tokenName)
		}
	}
	if !token.Valid {
		return apperrors.NewSignatureInvalidError(tokenName)
	}
	return nil
}

// SessionExpHours returns the session token validity in hours.
func (s *JWTService) SessionExpHours() int {
	return s.sessionExpHours
}
