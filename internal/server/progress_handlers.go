package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/genlearn/internal/catalog"
	"github.com/abhisek/genlearn/internal/labs"
	"github.com/abhisek/genlearn/internal/progress"
)

func (s *Server) getProgress(c *gin.Context) {
	RespondOK(c, s.deps.Tracker.GetProgress(c.Request.Context(), identity(c)))
}

func (s *Server) updateSettings(c *gin.Context) {
	var settings progress.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	RespondOK(c, s.deps.Tracker.UpdateSettings(c.Request.Context(), identity(c), settings))
}

func (s *Server) resetProgress(c *gin.Context) {
	s.deps.Tracker.ResetProgress(c.Request.Context(), identity(c))
	c.Status(http.StatusNoContent)
}

func (s *Server) overallProgress(c *gin.Context) {
	p := s.deps.Tracker.GetProgress(c.Request.Context(), identity(c))
	modules := make(map[string]int)
	for _, m := range s.deps.Catalog.ListModules() {
		modules[m.ID] = progress.ModulePercentage(p, s.deps.Catalog, m.ID)
	}
	RespondOK(c, gin.H{
		"percentage":   progress.OverallPercentage(p, s.deps.Catalog),
		"totalLessons": s.deps.Catalog.TotalLessons(),
		"modules":      modules,
	})
}

// lessonParam resolves the lesson named by the route or writes a 404.
func (s *Server) lessonParam(c *gin.Context) (catalog.Lesson, bool) {
	l, ok := s.deps.Catalog.GetLesson(c.Param("moduleID"), c.Param("lessonID"))
	if !ok {
		RespondError(c, http.StatusNotFound, "lesson_not_found",
			fmt.Errorf("lesson %s/%s: %w", c.Param("moduleID"), c.Param("lessonID"), errNotFound))
	}
	return l, ok
}

func (s *Server) startLesson(c *gin.Context) {
	l, ok := s.lessonParam(c)
	if !ok {
		return
	}
	RespondOK(c, s.deps.Tracker.MarkLessonStarted(c.Request.Context(), identity(c), l.ModuleID, l.ID))
}

func (s *Server) completeLesson(c *gin.Context) {
	l, ok := s.lessonParam(c)
	if !ok {
		return
	}
	RespondOK(c, s.deps.Tracker.MarkLessonCompleted(c.Request.Context(), identity(c), l.ModuleID, l.ID))
}

type quizRequest struct {
	Answers map[string]string `json:"answers"`
}

func (s *Server) submitQuiz(c *gin.Context) {
	l, ok := s.lessonParam(c)
	if !ok {
		return
	}
	if l.Quiz == nil {
		RespondError(c, http.StatusNotFound, "quiz_not_found", fmt.Errorf("lesson %s has no quiz", l.ID))
		return
	}
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	grade := l.Quiz.Grade(req.Answers)
	p := s.deps.Tracker.SaveQuizResult(c.Request.Context(), identity(c), l.ModuleID, l.ID, l.Quiz.ID, grade.Score, grade.Passed)
	RespondOK(c, gin.H{"grade": grade, "progress": p})
}

type labRequest struct {
	Input string `json:"input"`
}

func (s *Server) runLab(c *gin.Context) {
	var req labRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	run, err := s.deps.Labs.Run(c.Request.Context(), identity(c), c.Param("moduleID"), c.Param("lessonID"), req.Input)
	if err != nil {
		labError(c, err)
		return
	}
	RespondOK(c, run)
}

func (s *Server) labHint(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("hint index: %w", err))
		return
	}
	hint, err := s.deps.Labs.Hint(c.Param("moduleID"), c.Param("lessonID"), index)
	if err != nil {
		labError(c, err)
		return
	}
	RespondOK(c, gin.H{"index": index, "hint": hint})
}

func labError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, labs.ErrLabNotFound):
		RespondError(c, http.StatusNotFound, "lab_not_found", err)
	case errors.Is(err, labs.ErrHintNotFound):
		RespondError(c, http.StatusNotFound, "hint_not_found", err)
	default:
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	}
}

func (s *Server) leaderboard(c *gin.Context) {
	top := progress.DefaultLeaderboardSize
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("top must be a positive integer"))
			return
		}
		top = n
	}
	RespondOK(c, gin.H{"entries": s.deps.Tracker.Leaderboard(c.Request.Context(), top)})
}
