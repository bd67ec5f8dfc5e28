package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"campusboard/internal/models"
	"campusboard/internal/utils"

	"github.com/go-chi/jwtauth/v5"
	"gorm.io/gorm"
)

const TokenType = "bearer"

// AuthService 注册、登录以及 HS256 访问令牌的签发和校验
type AuthService struct {
	db      *gorm.DB
	schools *SchoolService
	jwt     *jwtauth.JWTAuth
	ttl     time.Duration
}

func NewAuthService(db *gorm.DB, schools *SchoolService, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		db:      db,
		schools: schools,
		jwt:     jwtauth.New("HS256", []byte(secret), nil),
		ttl:     ttl,
	}
}

type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	CountryID    uint
	SchoolID     uint
	CollegeID    uint
	DepartmentID uint
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IssueToken 签发访问令牌，claims: user_id, email, iat, exp
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	claims := map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, time.Now().Add(s.ttl))
	_, token, err := s.jwt.Encode(claims)
	return token, err
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return "", newError(ErrValidation, "邮箱和姓名不能为空")
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return "", newError(ErrValidation, err.Error())
	}
	if err := s.schools.ValidateChain(ctx, in.CountryID, in.SchoolID, in.CollegeID, in.DepartmentID); err != nil {
		return "", err
	}

	db := s.db.WithContext(ctx)
	taken, err := exists(db, &models.User{}, "email = ?", email)
	if err != nil {
		return "", err
	}
	if taken {
		return "", newError(ErrConflict, "该邮箱已注册")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return "", err
	}
	user := models.User{
		Email:        email,
		Password:     hash,
		Name:         name,
		CountryID:    in.CountryID,
		SchoolID:     in.SchoolID,
		CollegeID:    in.CollegeID,
		DepartmentID: in.DepartmentID,
		RegisterType: models.UserTypeUser,
	}
	if err := db.Create(&user).Error; err != nil {
		return "", err
	}
	return s.IssueToken(&user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", newError(ErrUnauthorized, "邮箱或密码错误")
	}
	if err != nil {
		return "", err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return "", newError(ErrUnauthorized, "邮箱或密码错误")
	}
	if user.IsDeleted() {
		return "", newError(ErrUnauthorized, "账号已注销")
	}
	return s.IssueToken(&user)
}

// Authenticate 校验令牌并加载用户（含层级信息），已注销账号视为未登录
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwtauth.VerifyToken(s.jwt, tokenString)
	if err != nil {
		return nil, newError(ErrUnauthorized, "登录凭证无效或已过期")
	}
	raw, ok := token.Get("user_id")
	if !ok {
		return nil, newError(ErrUnauthorized, "登录凭证无效或已过期")
	}
	// JSON 数字解码为 float64
	id, ok := raw.(float64)
	if !ok || id <= 0 {
		return nil, newError(ErrUnauthorized, "登录凭证无效或已过期")
	}

	var user models.User
	err = s.db.WithContext(ctx).
		Preload("Country").Preload("School").Preload("College").Preload("Department").
		First(&user, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrUnauthorized, "用户不存在")
	}
	if err != nil {
		return nil, err
	}
	if user.IsDeleted() {
		return nil, newError(ErrUnauthorized, "账号已注销")
	}
	return &user, nil
}
