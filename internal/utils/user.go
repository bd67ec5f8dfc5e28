package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordMinLength    = 8
	PasswordSpecialChars = "!@#$%^&*()"
)

var (
	ErrPasswordTooShort  = errors.New("密码长度至少为 8 位")
	ErrPasswordNoUpper   = errors.New("密码需包含大写字母")
	ErrPasswordNoLower   = errors.New("密码需包含小写字母")
	ErrPasswordNoDigit   = errors.New("密码需包含数字")
	ErrPasswordNoSpecial = errors.New("密码需包含特殊字符 " + PasswordSpecialChars)
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword 检查密码强度，返回第一条不满足的规则
func ValidatePassword(password string) error {
	if len([]rune(password)) < PasswordMinLength {
		return ErrPasswordTooShort
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecialChars, r):
			special = true
		}
	}
	switch {
	case !upper:
		return ErrPasswordNoUpper
	case !lower:
		return ErrPasswordNoLower
	case !digit:
		return ErrPasswordNoDigit
	case !special:
		return ErrPasswordNoSpecial
	}
	return nil
}
