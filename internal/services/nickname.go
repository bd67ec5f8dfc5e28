package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"campusboard/internal/models"
	"campusboard/internal/nickname"
	"campusboard/internal/utils"

	"gorm.io/gorm"
)

const (
	nicknameTemplatesKey = "nickname:templates"
	nicknameTemplatesTTL = time.Minute
	nicknameMaxLength    = 90 // 留出 4 位后缀
)

// NicknameService 分配帖子内的匿名昵称，并维护昵称词干表
type NicknameService struct {
	db          *gorm.DB
	cache       *utils.GlobalCache
	src         nickname.Source
	maxAttempts int
}

func NewNicknameService(db *gorm.DB, cache *utils.GlobalCache, src nickname.Source, maxAttempts int) *NicknameService {
	return &NicknameService{
		db:          db,
		cache:       cache,
		src:         src,
		maxAttempts: maxAttempts,
	}
}

// List 全部昵称词干，按 id 排序
func (s *NicknameService) List(ctx context.Context) ([]models.NicknameTemplate, error) {
	var templates []models.NicknameTemplate
	if err := s.db.WithContext(ctx).Order("id").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *NicknameService) Add(ctx context.Context, name string) (*models.NicknameTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(ErrValidation, "昵称不能为空")
	}
	if utf8.RuneCountInString(name) > nicknameMaxLength {
		return nil, newError(ErrValidation, "昵称过长")
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.NicknameTemplate{}).Where("nickname = ?", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newError(ErrConflict, "昵称已存在")
	}

	tpl := models.NicknameTemplate{Nickname: name}
	if err := db.Create(&tpl).Error; err != nil {
		return nil, err
	}
	s.cache.Delete(nicknameTemplatesKey)
	return &tpl, nil
}

func (s *NicknameService) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("nickname = ?", name).Delete(&models.NicknameTemplate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newError(ErrNotFound, "昵称不存在")
	}
	s.cache.Delete(nicknameTemplatesKey)
	return nil
}

// templates 读取词干列表（带缓存）。事务内调用时必须传入 tx
func (s *NicknameService) templates(db *gorm.DB) ([]string, error) {
	if cached := s.cache.Get(nicknameTemplatesKey); cached != nil {
		if names, ok := cached.([]string); ok {
			return names, nil
		}
	}

	var names []string
	if err := db.Model(&models.NicknameTemplate{}).Order("id").Pluck("nickname", &names).Error; err != nil {
		return nil, err
	}
	s.cache.Set(nicknameTemplatesKey, names, nicknameTemplatesTTL)
	return names, nil
}

// Generate 生成在该帖子内未被使用的新昵称。postID 为 0 表示新帖，不会有冲突
func (s *NicknameService) Generate(tx *gorm.DB, postID uint) (string, error) {
	names, err := s.templates(tx)
	if err != nil {
		return "", err
	}

	name, err := nickname.Generate(s.src, names, s.maxAttempts, func(candidate string) (bool, error) {
		return nicknameTaken(tx, postID, candidate)
	})
	switch {
	case errors.Is(err, nickname.ErrNoTemplates), errors.Is(err, nickname.ErrExhausted):
		log.Printf("[nickname] post %d: %v", postID, err)
		return "", newError(ErrNicknameExhausted, ErrNicknameExhausted.Error())
	case err != nil:
		return "", err
	}
	return name, nil
}

// nicknameTaken 同一帖子内，帖子昵称和所有评论昵称（含已删除）都不能重复
func nicknameTaken(tx *gorm.DB, postID uint, candidate string) (bool, error) {
	var taken bool
	err := tx.Raw(
		`SELECT EXISTS (SELECT 1 FROM posts WHERE id = ? AND nickname = ?)
			OR EXISTS (SELECT 1 FROM comments WHERE post_id = ? AND nickname = ?)`,
		postID, candidate, postID, candidate,
	).Scan(&taken).Error
	return taken, err
}

// AssignNickname 决定用户在某个帖子下显示的昵称：
// 楼主沿用帖子昵称；评论过的用户沿用最早一条未删除评论的昵称；其余生成新昵称。
func (s *NicknameService) AssignNickname(tx *gorm.DB, authorUserID, postID, postAuthorUserID uint) (string, error) {
	if authorUserID == postAuthorUserID {
		var post models.Post
		err := tx.Select("id", "nickname").First(&post, postID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", newError(ErrNotFound, "帖子不存在")
		}
		if err != nil {
			return "", err
		}
		return post.Nickname, nil
	}

	var prior models.Comment
	err := tx.Select("id", "nickname").
		Where("post_id = ? AND user_id = ? AND deleted_at IS NULL", postID, authorUserID).
		Order("created_at ASC, id ASC").
		Take(&prior).Error
	if err == nil {
		return prior.Nickname, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	return s.Generate(tx, postID)
}
