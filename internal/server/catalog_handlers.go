package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/genlearn/internal/catalog"
)

var errNotFound = errors.New("not found")

func (s *Server) listModules(c *gin.Context) {
	level := c.Query("level")
	if level == "" {
		RespondOK(c, gin.H{"modules": s.deps.Catalog.ListModules()})
		return
	}
	if !catalog.Level(level).Valid() {
		RespondError(c, http.StatusBadRequest, "invalid_level", fmt.Errorf("unknown level %q", level))
		return
	}
	RespondOK(c, gin.H{"modules": s.deps.Catalog.ListModulesByLevel(catalog.Level(level))})
}

func (s *Server) getModule(c *gin.Context) {
	m, ok := s.deps.Catalog.GetModule(c.Param("moduleID"))
	if !ok {
		RespondError(c, http.StatusNotFound, "module_not_found", fmt.Errorf("module %q: %w", c.Param("moduleID"), errNotFound))
		return
	}
	RespondOK(c, m)
}

func (s *Server) nextModule(c *gin.Context) {
	m, ok := s.deps.Catalog.NextModule(c.Param("moduleID"))
	if !ok {
		RespondError(c, http.StatusNotFound, "no_next_module", fmt.Errorf("no module after %q", c.Param("moduleID")))
		return
	}
	RespondOK(c, m)
}

func (s *Server) getLesson(c *gin.Context) {
	l, ok := s.deps.Catalog.GetLesson(c.Param("moduleID"), c.Param("lessonID"))
	if !ok {
		RespondError(c, http.StatusNotFound, "lesson_not_found",
			fmt.Errorf("lesson %s/%s: %w", c.Param("moduleID"), c.Param("lessonID"), errNotFound))
		return
	}
	RespondOK(c, l)
}

func (s *Server) nextLesson(c *gin.Context) {
	l, ok := s.deps.Catalog.NextLesson(c.Param("moduleID"), c.Param("lessonID"))
	if !ok {
		RespondError(c, http.StatusNotFound, "no_next_lesson",
			fmt.Errorf("no lesson after %s/%s", c.Param("moduleID"), c.Param("lessonID")))
		return
	}
	RespondOK(c, l)
}
