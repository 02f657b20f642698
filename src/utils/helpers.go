package utils

import (
	"ems/src/types"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func IsProd() bool {
	return os.Getenv("API_ENV") == string(types.Production)
}

// WithSuffix namespaces queue and topic names per environment so local
// and production deployments never share a queue.
func WithSuffix(name string) string {
	if IsProd() {
		return name
	}
	env := os.Getenv("API_ENV")
	if env == "" {
		env = string(types.Local)
	}
	return fmt.Sprintf("%s-%s", name, env)
}

func GenerateJWT(email string, userId uint, role string) (string, error) {
	expiry := time.Now().Add(24 * time.Hour)
	claims := &types.Claims{
		Username: email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userId)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ApplyApplicationFilters narrows an applications query by the optional
// status and exhibition query params.
func ApplyApplicationFilters(tx *gorm.DB, filters *types.ApplicationsQueryFilters) *gorm.DB {
	if filters.Status != "" {
		tx = tx.Where("stall_applications.status = ?", filters.Status)
	}
	if filters.Exhibition > 0 {
		tx = tx.Where("stall_applications.exhibition_id = ?", filters.Exhibition)
	}
	return tx
}
