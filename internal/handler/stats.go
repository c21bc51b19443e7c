package handler

import (
	"fmt"
	"net/http"

	"github.com/paiban/kebiao/pkg/export"
	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/stats"
)

// StatsData 课表统计
type StatsData struct {
	Version  int64                  `json:"version"`
	Fairness *stats.FairnessMetrics `json:"fairness"`
	Coverage *stats.CoverageMetrics `json:"coverage"`
	Report   string                 `json:"report,omitempty"`
}

// StatsResponse 统计响应
type StatsResponse struct {
	Success bool       `json:"success"`
	Data    *StatsData `json:"data"`
}

// Stats 教师负荷公平性与教室、时间段利用率。report=true 时附带文字报告
func (h *TimetableHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap := h.current(w)
	if snap == nil {
		return
	}

	ctx := r.Context()
	cfg, err := h.source.ConstraintConfig(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	offerings, err := h.source.Offerings(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	teachers, err := h.source.Teachers(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	rooms, err := h.allRooms(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	fa := stats.NewFairnessAnalyzer(cfg.WorkingDays)
	if h.weights.LateFrom > 0 {
		fa.SetLateFrom(h.weights.LateFrom)
	}
	fairness := fa.Analyze(snap.Entries, teachers)

	ca := stats.NewCoverageAnalyzer(cfg)
	coverage := ca.Analyze(offerings, snap.Entries, rooms)

	h.metrics.SetFairnessGini("workload", fairness.WorkloadGini)
	h.metrics.SetFairnessGini("late", fairness.LateSessionGini)
	h.metrics.SetCoverageRate(coverage.OverallCoverage)

	data := &StatsData{Version: snap.Version, Fairness: fairness, Coverage: coverage}
	if r.URL.Query().Get("report") == "true" {
		data.Report = ca.GenerateCoverageReport(coverage)
	}
	respondJSON(w, http.StatusOK, StatsResponse{Success: true, Data: data})
}

func (h *TimetableHandler) allRooms(r *http.Request) ([]*model.Room, error) {
	rooms, err := h.source.Rooms(r.Context())
	if err != nil {
		return nil, err
	}
	labs, err := h.source.Labs(r.Context())
	if err != nil {
		return nil, err
	}
	return append(append([]*model.Room(nil), rooms...), labs...), nil
}

// Export 导出当前课表，format 为 csv、pdf 或 xlsx，默认 csv
func (h *TimetableHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, apperrors.InvalidInput("format", err.Error()))
		return
	}

	snap := h.current(w)
	if snap == nil {
		return
	}
	cfg, err := h.source.ConstraintConfig(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}

	title := fmt.Sprintf("课表 v%d", snap.Version)
	body, err := export.Render(format, export.FromEntries(snap.Entries, cfg.Ordering()), title)
	if err != nil {
		respondErr(w, r, apperrors.Wrap(err, apperrors.CodeInternal, "导出失败"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-v%d.%s", snap.Version, format))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
