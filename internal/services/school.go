package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusboard/internal/models"
	"campusboard/internal/utils"

	"gorm.io/gorm"
)

const hierarchyCacheTTL = 5 * time.Minute

// SchoolService 国家 → 学校 → 学院 → 系 的浏览与校验
type SchoolService struct {
	db    *gorm.DB
	cache *utils.GlobalCache
}

func NewSchoolService(db *gorm.DB, cache *utils.GlobalCache) *SchoolService {
	return &SchoolService{db: db, cache: cache}
}

// HierarchyQuery 浏览参数，Search 对名称做不区分大小写的包含匹配
type HierarchyQuery struct {
	Search  string
	Page    int
	PerPage int
}

func exists(db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// chainCheck 检查一个层级节点是否存在且属于给定的上级
type chainCheck struct {
	model  interface{}
	query  string
	args   []interface{}
	errMsg string
}

func (s *SchoolService) checkChain(db *gorm.DB, checks []chainCheck, kind error) error {
	for _, c := range checks {
		ok, err := exists(db, c.model, c.query, c.args...)
		if err != nil {
			return err
		}
		if !ok {
			return newError(kind, c.errMsg)
		}
	}
	return nil
}

func countryCheck(countryID uint) chainCheck {
	return chainCheck{&models.Country{}, "id = ?", []interface{}{countryID}, "国家不存在"}
}

func schoolCheck(countryID, schoolID uint) chainCheck {
	return chainCheck{&models.School{}, "id = ? AND country_id = ?", []interface{}{schoolID, countryID}, "学校不存在或不属于该国家"}
}

func collegeCheck(schoolID, collegeID uint) chainCheck {
	return chainCheck{&models.College{}, "id = ? AND school_id = ?", []interface{}{collegeID, schoolID}, "学院不存在或不属于该学校"}
}

func departmentCheck(collegeID, departmentID uint) chainCheck {
	return chainCheck{&models.Department{}, "id = ? AND college_id = ?", []interface{}{departmentID, collegeID}, "系不存在或不属于该学院"}
}

// ValidateChain 注册时校验完整层级链，不匹配返回 ErrValidation
func (s *SchoolService) ValidateChain(ctx context.Context, countryID, schoolID, collegeID, departmentID uint) error {
	return s.checkChain(s.db.WithContext(ctx), []chainCheck{
		countryCheck(countryID),
		schoolCheck(countryID, schoolID),
		collegeCheck(schoolID, collegeID),
		departmentCheck(collegeID, departmentID),
	}, ErrValidation)
}

// FirstSchoolID id 最小的学校，没有学校时返回 0
func (s *SchoolService) FirstSchoolID(ctx context.Context) (uint, error) {
	var school models.School
	err := s.db.WithContext(ctx).Order("id").Take(&school).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return school.ID, nil
}

type filterRefs struct {
	school     *Ref
	college    *Ref
	department *Ref
}

// resolveFilters 把帖子列表的筛选 id 解析成名称，不存在的 id 返回 ErrNotFound
func (s *SchoolService) resolveFilters(db *gorm.DB, schoolID, collegeID, departmentID uint) (filterRefs, error) {
	var refs filterRefs

	var school models.School
	if err := db.First(&school, schoolID).Error; err != nil {
		return refs, notFoundOr(err, "学校不存在")
	}
	r := schoolRef(school)
	refs.school = &r

	if collegeID != 0 {
		var college models.College
		if err := db.First(&college, collegeID).Error; err != nil {
			return refs, notFoundOr(err, "学院不存在")
		}
		r := collegeRef(college)
		refs.college = &r
	}
	if departmentID != 0 {
		var department models.Department
		if err := db.First(&department, departmentID).Error; err != nil {
			return refs, notFoundOr(err, "系不存在")
		}
		r := departmentRef(department)
		refs.department = &r
	}
	return refs, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, msg)
	}
	return err
}

// browse 分页列出某个层级，结果缓存 5 分钟
func (s *SchoolService) browse(db *gorm.DB, key string, model interface{}, scope func(*gorm.DB) *gorm.DB, toRef func(*gorm.DB) ([]Ref, error), q HierarchyQuery) (*RefList, error) {
	page, perPage := utils.NormalizePage(q.Page, q.PerPage)
	search := strings.ToLower(strings.TrimSpace(q.Search))
	cacheKey := fmt.Sprintf("hierarchy:%s:%s:%d:%d", key, search, page, perPage)
	if cached := s.cache.Get(cacheKey); cached != nil {
		if list, ok := cached.(*RefList); ok {
			return list, nil
		}
	}

	var total int64
	if err := db.Model(model).Scopes(scope).Count(&total).Error; err != nil {
		return nil, err
	}
	items, err := toRef(db.Scopes(scope).Order("name, id").Limit(perPage).Offset((page - 1) * perPage))
	if err != nil {
		return nil, err
	}

	list := &RefList{Items: items, Pagination: newPagination(total, page, perPage)}
	s.cache.Set(cacheKey, list, hierarchyCacheTTL)
	return list, nil
}

func nameSearch(search string, columns ...string) func(*gorm.DB) *gorm.DB {
	search = strings.ToLower(strings.TrimSpace(search))
	return func(q *gorm.DB) *gorm.DB {
		if search == "" {
			return q
		}
		like := "%" + search + "%"
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			conds[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = like
		}
		return q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// Countries 国家列表，可按名称或代码搜索
func (s *SchoolService) Countries(ctx context.Context, q HierarchyQuery) (*RefList, error) {
	return s.browse(s.db.WithContext(ctx), "countries", &models.Country{},
		nameSearch(q.Search, "name", "code"),
		func(db *gorm.DB) ([]Ref, error) {
			var rows []models.Country
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			refs := make([]Ref, len(rows))
			for i, r := range rows {
				refs[i] = countryRef(r)
			}
			return refs, nil
		}, q)
}

func (s *SchoolService) Schools(ctx context.Context, countryID uint, q HierarchyQuery) (*RefList, error) {
	db := s.db.WithContext(ctx)
	if err := s.checkChain(db, []chainCheck{countryCheck(countryID)}, ErrNotFound); err != nil {
		return nil, err
	}
	search := nameSearch(q.Search, "name")
	return s.browse(db, fmt.Sprintf("schools:%d", countryID), &models.School{},
		func(db *gorm.DB) *gorm.DB { return search(db.Where("country_id = ?", countryID)) },
		func(db *gorm.DB) ([]Ref, error) {
			var rows []models.School
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			refs := make([]Ref, len(rows))
			for i, r := range rows {
				refs[i] = schoolRef(r)
			}
			return refs, nil
		}, q)
}

func (s *SchoolService) Colleges(ctx context.Context, countryID, schoolID uint, q HierarchyQuery) (*RefList, error) {
	db := s.db.WithContext(ctx)
	err := s.checkChain(db, []chainCheck{countryCheck(countryID), schoolCheck(countryID, schoolID)}, ErrNotFound)
	if err != nil {
		return nil, err
	}
	search := nameSearch(q.Search, "name")
	return s.browse(db, fmt.Sprintf("colleges:%d", schoolID), &models.College{},
		func(db *gorm.DB) *gorm.DB { return search(db.Where("school_id = ?", schoolID)) },
		func(db *gorm.DB) ([]Ref, error) {
			var rows []models.College
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			refs := make([]Ref, len(rows))
			for i, r := range rows {
				refs[i] = collegeRef(r)
			}
			return refs, nil
		}, q)
}

func (s *SchoolService) Departments(ctx context.Context, countryID, schoolID, collegeID uint, q HierarchyQuery) (*RefList, error) {
	db := s.db.WithContext(ctx)
	err := s.checkChain(db, []chainCheck{
		countryCheck(countryID),
		schoolCheck(countryID, schoolID),
		collegeCheck(schoolID, collegeID),
	}, ErrNotFound)
	if err != nil {
		return nil, err
	}
	search := nameSearch(q.Search, "name")
	return s.browse(db, fmt.Sprintf("departments:%d", collegeID), &models.Department{},
		func(db *gorm.DB) *gorm.DB { return search(db.Where("college_id = ?", collegeID)) },
		func(db *gorm.DB) ([]Ref, error) {
			var rows []models.Department
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			refs := make([]Ref, len(rows))
			for i, r := range rows {
				refs[i] = departmentRef(r)
			}
			return refs, nil
		}, q)
}
