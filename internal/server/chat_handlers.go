package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/genlearn/internal/llm"
)

type chatRequest struct {
	Messages []llm.Message `json:"messages"`
	Params   llm.Params    `json:"params"`
}

// chat forwards one completion. Model failures are part of the result
// body; only malformed requests get an error status.
func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ctx := llm.WithPurpose(c.Request.Context(), "chat")
	result := s.deps.Chat.SendChatCompletion(ctx, req.Messages, req.Params)
	if result.ErrorKind == llm.ErrorKindInvalid {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	RespondOK(c, result)
}
