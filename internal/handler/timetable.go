package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
	"github.com/paiban/kebiao/pkg/scheduler/constraint/builtin"
	"github.com/paiban/kebiao/pkg/scheduler/fitness"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
	"github.com/paiban/kebiao/pkg/timetable"
	"github.com/paiban/kebiao/pkg/validator"
)

// TimetableHandler 课表处理器
type TimetableHandler struct {
	store     *timetable.Store
	generator *timetable.Generator
	moves     *timetable.MoveController
	source    Source
	weights   fitness.Weights
	detector  *validator.ConflictDetector
	validate  *govalidator.Validate
	metrics   Recorder
}

// NewTimetableHandler 创建课表处理器
func NewTimetableHandler(store *timetable.Store, generator *timetable.Generator, source Source, weights fitness.Weights) *TimetableHandler {
	return &TimetableHandler{
		store:     store,
		generator: generator,
		moves:     timetable.NewMoveController(store),
		source:    source,
		weights:   weights,
		detector:  validator.NewConflictDetector(),
		validate:  newValidate(),
		metrics:   nopRecorder{},
	}
}

// SetRecorder 设置指标上报
func (h *TimetableHandler) SetRecorder(r Recorder) {
	if r != nil {
		h.metrics = r
	}
}

// GenerateResponse 课表生成响应
type GenerateResponse struct {
	Success      bool               `json:"success"`
	Version      int64              `json:"version"`
	Score        float64            `json:"score"`
	InitialScore float64            `json:"initial_score"`
	Generations  int                `json:"generations"`
	StopReason   string             `json:"stop_reason,omitempty"`
	Statistics   *solver.Statistics `json:"statistics"`
	Shortfalls   []solver.Shortfall `json:"shortfalls,omitempty"`
	Breakdown    fitness.Breakdown  `json:"breakdown"`
	DurationMs   int64              `json:"duration_ms"`
	Timetable    []*model.Entry     `json:"timetable"`
}

// Generate 生成并提交课表，同一时间只允许一次生成
func (h *TimetableHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.metrics.GenerationStarted()
	result, err := h.generator.Generate(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}

	snap := result.Snapshot
	h.metrics.SetSnapshot(snap.Version, len(snap.Entries), snap.Score)
	respondJSON(w, http.StatusOK, GenerateResponse{
		Success:      true,
		Version:      snap.Version,
		Score:        snap.Score,
		InitialScore: result.InitialScore,
		Generations:  result.Generations,
		StopReason:   result.StopReason,
		Statistics:   result.Statistics,
		Shortfalls:   result.Shortfalls,
		Breakdown:    result.Breakdown,
		DurationMs:   result.Duration.Milliseconds(),
		Timetable:    snap.Entries,
	})
}

// current 读取已提交课表，尚未生成时写入 NO_TIMETABLE
func (h *TimetableHandler) current(w http.ResponseWriter) *timetable.Snapshot {
	snap := h.store.Current()
	if snap == nil {
		respondError(w, apperrors.New(apperrors.CodeNoTimetable, "尚未生成课表"))
	}
	return snap
}

// Get 返回当前课表
func (h *TimetableHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.current(w)
	if snap == nil {
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// StructuredResponse 分组课表响应
type StructuredResponse struct {
	Version int64                `json:"version"`
	Years   []timetable.YearView `json:"years"`
}

// Structured 返回 年级 → 专业 → 星期 分组的课表
func (h *TimetableHandler) Structured(w http.ResponseWriter, r *http.Request) {
	snap := h.current(w)
	if snap == nil {
		return
	}
	cfg, err := h.source.ConstraintConfig(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, StructuredResponse{
		Version: snap.Version,
		Years:   timetable.Structure(snap.Entries, cfg.Ordering()),
	})
}

// ValidateRequest 校验请求，entries 为空时校验当前课表
type ValidateRequest struct {
	Entries []*model.Entry `json:"entries" validate:"omitempty,dive,required"`
}

// ValidateResponse 校验结果
type ValidateResponse struct {
	Valid     bool                           `json:"valid"`
	Version   int64                          `json:"version,omitempty"`
	Conflicts []validator.Conflict           `json:"conflicts"`
	Messages  []string                       `json:"messages"`
	Counts    map[validator.ConflictType]int `json:"counts"`
	Rules     *constraint.Result             `json:"rules"`
	Fitness   fitness.Result                 `json:"fitness"`
}

// Validate 检查课表冲突、规则违反并给出适应度分解
func (h *TimetableHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := validateRequest(h.validate, &req); err != nil {
		respondError(w, err)
		return
	}

	entries := req.Entries
	var version int64
	if len(entries) == 0 {
		snap := h.current(w)
		if snap == nil {
			return
		}
		entries, version = snap.Entries, snap.Version
	}

	ctx := r.Context()
	cfg, err := h.source.ConstraintConfig(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	teachers, err := h.source.Teachers(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	conflicts := h.detector.DetectAll(entries)

	manager := constraint.NewManager()
	builtin.RegisterDefaultConstraints(manager, cfg, nil)
	cctx := constraint.NewContext(cfg, teachers)
	cctx.SetEntries(entries)
	rules := manager.Evaluate(cctx)
	h.recordViolations(rules)

	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:     len(conflicts) == 0 && rules.IsValid,
		Version:   version,
		Conflicts: nonNilConflicts(conflicts),
		Messages:  validator.Messages(conflicts),
		Counts:    validator.Count(conflicts),
		Rules:     rules,
		Fitness:   fitness.NewEvaluator(cfg, teachers, h.weights).Evaluate(entries),
	})
}

func (h *TimetableHandler) recordViolations(res *constraint.Result) {
	counts := make(map[constraint.Type]int)
	for _, v := range res.HardViolations {
		counts[v.ConstraintType]++
	}
	for t, n := range counts {
		h.metrics.RecordConstraintViolation(string(t), string(constraint.CategoryHard), n)
	}
	soft := make(map[constraint.Type]int)
	for _, v := range res.SoftViolations {
		soft[v.ConstraintType]++
	}
	for t, n := range soft {
		h.metrics.RecordConstraintViolation(string(t), string(constraint.CategorySoft), n)
	}
}

func nonNilConflicts(c []validator.Conflict) []validator.Conflict {
	if c == nil {
		return []validator.Conflict{}
	}
	return c
}

// decodeJSONBody 解析可选的请求体，空请求体不报错
func decodeJSONBody(r *http.Request, dst interface{}) *apperrors.AppError {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := decodeJSON(r, dst)
	if err != nil && errors.Is(err.Cause, io.EOF) {
		return nil
	}
	return err
}

// Move 提交一次课次调整。被拒绝同样返回 200，committed 为 false
func (h *TimetableHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req timetable.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := validateRequest(h.validate, &req); err != nil {
		respondError(w, err)
		return
	}

	cfg, err := h.source.ConstraintConfig(r.Context())
	if err != nil {
		h.metrics.RecordMove("error")
		respondErr(w, r, err)
		return
	}

	result, err := h.moves.ProposeMove(r.Context(), cfg, req)
	if err != nil {
		h.metrics.RecordMove("error")
		respondErr(w, r, err)
		return
	}

	if result.Committed {
		h.metrics.RecordMove("committed")
		if snap := h.store.Current(); snap != nil {
			h.metrics.SetSnapshot(snap.Version, len(snap.Entries), snap.Score)
		}
	} else {
		h.metrics.RecordMove("rejected")
	}
	respondJSON(w, http.StatusOK, result)
}

// OptionsResponse 可移动位置
type OptionsResponse struct {
	EntryID uuid.UUID              `json:"entry_id"`
	Options []timetable.MoveOption `json:"options"`
}

// Options 列出某条记录可移动到的时间段，按得分排序，不提交
func (h *TimetableHandler) Options(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, apperrors.InvalidInput("id", "无效的记录ID"))
		return
	}

	opts := timetable.DefaultSuggestOptions()
	if s := r.URL.Query().Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 0 {
			respondError(w, apperrors.InvalidInput("limit", "必须为非负整数"))
			return
		}
		opts.MaxOptions = n
	}

	ctx := r.Context()
	cfg, err := h.source.ConstraintConfig(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	teachers, err := h.source.Teachers(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	scorer := fitness.NewEvaluator(cfg, teachers, h.weights)
	options, err := h.moves.Suggest(cfg, id, scorer, opts)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if options == nil {
		options = []timetable.MoveOption{}
	}
	respondJSON(w, http.StatusOK, OptionsResponse{EntryID: id, Options: options})
}
