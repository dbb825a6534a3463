package utils

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

var (
	htmlTagRe      = regexp.MustCompile(`<[^>]*>`)
	jsSchemeRe     = regexp.MustCompile(`(?i)javascript:`)
	eventAttrRe    = regexp.MustCompile(`(?i)on\w+\s*=`)
	emailRe        = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsBcryptHash отличает bcrypt-хеш от пароля, сохранённого открытым текстом.
func IsBcryptHash(s string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// SanitizeInput убирает HTML-теги, javascript: и обработчики on*= из свободного текста.
func SanitizeInput(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = jsSchemeRe.ReplaceAllString(s, "")
	s = eventAttrRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeList применяет SanitizeInput к каждому элементу и отбрасывает пустые.
func SanitizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := SanitizeInput(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
