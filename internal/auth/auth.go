// internal/auth/auth.go
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Annany2002/schema-designer-backend/internal/domain"
	"github.com/Annany2002/schema-designer-backend/internal/logger"
	"github.com/Annany2002/schema-designer-backend/internal/storage"
)

var (
	ErrTokenMalformed          = errors.New("malformed token")
	ErrTokenExpired            = errors.New("token is expired or not valid yet")
	ErrTokenInvalid            = errors.New("invalid token")
	ErrTokenClaimsInvalid      = errors.New("invalid token claims")
	ErrUnexpectedSigningMethod = errors.New("unexpected token signing method")
	ErrInvalidCredentials      = errors.New("incorrect username or password")
	ErrInactiveUser            = errors.New("inactive user")
	ErrNotAuthenticated        = errors.New("not authenticated")
	customLog                  = logger.NewLogger()
)

const tokenIssuer = "schema-designer"

// CustomClaims carries the user id next to the standard claims.
// The subject holds the username.
type CustomClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// --- Password Utilities ---

// HashPassword generates a bcrypt hash for the given password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		customLog.Warnf("Error generating bcrypt hash: %v", err)
		return "", fmt.Errorf("failed to hash password")
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		customLog.Warnf("Unexpected error comparing password hash: %v", err)
	}
	return err == nil
}

// --- JWT Utilities ---

// GenerateJWT creates a signed JWT for the given user
func GenerateJWT(user *domain.User, jwtSecret string, jwtExpiration time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		customLog.Warnf("Error signing JWT for user %d: %v", user.ID, err)
		return "", fmt.Errorf("failed to generate token")
	}

	return signedToken, nil
}

// ValidateJWT parses and validates a JWT string, returning the user id if valid.
func ValidateJWT(tokenString, jwtSecret string) (int64, error) {
	claims := &CustomClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			customLog.Warnf("ValidateJWT: Unexpected signing method: %v", token.Header["alg"])
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		customLog.Debugf("ValidateJWT: Token parsing error: %v", err)
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return 0, ErrTokenExpired
		case errors.Is(err, ErrUnexpectedSigningMethod):
			return 0, ErrUnexpectedSigningMethod
		default:
			return 0, ErrTokenInvalid
		}
	}

	if !token.Valid {
		return 0, ErrTokenInvalid
	}
	if claims.UserID <= 0 {
		customLog.Warnf("ValidateJWT: user id missing in token claims (sub=%s)", claims.Subject)
		return 0, ErrTokenClaimsInvalid
	}

	return claims.UserID, nil
}

// --- Account Utilities ---

// Authenticate looks the user up by username and checks the password.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func Authenticate(ctx context.Context, db *sql.DB, username, password string) (*domain.User, error) {
	user, err := storage.FindUserByUsername(ctx, db, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		customLog.Warnf("Login attempt failed for username %s: invalid password", username)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// CurrentUser resolves a bearer token to an active user.
func CurrentUser(ctx context.Context, db *sql.DB, tokenString, jwtSecret string) (*domain.User, error) {
	userID, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return nil, err
	}

	user, err := storage.FindUserByID(ctx, db, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown user %s", ErrTokenClaimsInvalid, strconv.FormatInt(userID, 10))
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}
