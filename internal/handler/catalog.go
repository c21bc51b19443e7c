package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/paiban/kebiao/internal/constraints"
	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
)

// CatalogHandler 课程目录与排课规则
type CatalogHandler struct {
	rules   Source
	courses CourseSource
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(rules Source, courses CourseSource) *CatalogHandler {
	return &CatalogHandler{rules: rules, courses: courses}
}

// CourseItem 扁平化的课程条目
type CourseItem struct {
	Year   string            `json:"year"`
	Branch string            `json:"branch"`
	Course string            `json:"course"`
	Type   model.SessionType `json:"type"`
}

// CoursesResponse 课程目录响应
type CoursesResponse struct {
	Semester string       `json:"semester"`
	Count    int          `json:"count"`
	Courses  []CourseItem `json:"courses"`
}

// Courses 返回 odd 或 even 学期的扁平课程列表
func (h *CatalogHandler) Courses(w http.ResponseWriter, r *http.Request) {
	semester := strings.ToLower(chi.URLParam(r, "semester"))
	if semester != "odd" && semester != "even" {
		respondError(w, apperrors.InvalidInput("semester", "只支持 odd 或 even"))
		return
	}

	offerings, err := h.courses.Courses(r.Context(), semester)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	items := make([]CourseItem, 0, len(offerings))
	for _, o := range offerings {
		items = append(items, CourseItem{Year: o.Year, Branch: o.Branch, Course: o.Course, Type: o.Type})
	}
	respondJSON(w, http.StatusOK, CoursesResponse{Semester: semester, Count: len(items), Courses: items})
}

// Constraints 返回当前生效的排课规则
func (h *CatalogHandler) Constraints(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.rules.ConstraintConfig(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// Library 规则库，标记当前规则下实际生效的条目
func (h *CatalogHandler) Library(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.rules.ConstraintConfig(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, constraints.LibraryResponse{Library: constraints.ForConfig(cfg, nil)})
}
