// Package labs runs learner prompts against the configured model for the
// hands-on lessons of the catalog.
package labs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/genlearn/internal/auth"
	"github.com/abhisek/genlearn/internal/catalog"
	"github.com/abhisek/genlearn/internal/llm"
	"github.com/abhisek/genlearn/internal/logger"
	"github.com/abhisek/genlearn/internal/progress"
)

var (
	ErrLabNotFound  = errors.New("lab not found")
	ErrHintNotFound = errors.New("hint not found")
	ErrEmptyInput   = errors.New("lab input is empty")
)

// MaxInputLength bounds a single lab submission in bytes.
const MaxInputLength = 8000

// Sender issues one chat completion. *llm.Client satisfies it.
type Sender interface {
	SendChatCompletion(ctx context.Context, messages []llm.Message, params llm.Params) llm.Result
}

// Run is the outcome of one lab submission.
type Run struct {
	LabID    string                 `json:"labId"`
	Result   llm.Result             `json:"result"`
	Progress *progress.UserProgress `json:"progress"`
}

// Service looks up labs in the catalog, sends submissions to the model and
// records attempts on the learner's progress.
type Service struct {
	catalog *catalog.Catalog
	client  Sender
	tracker *progress.Tracker
	log     *logger.Logger
}

// NewService creates a lab service.
func NewService(cat *catalog.Catalog, client Sender, tracker *progress.Tracker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{catalog: cat, client: client, tracker: tracker, log: log.With("component", "labs")}
}

// Lab returns the lab attached to a lesson.
func (s *Service) Lab(moduleID, lessonID string) (catalog.Lab, error) {
	lesson, ok := s.catalog.GetLesson(moduleID, lessonID)
	if !ok || lesson.Lab == nil {
		return catalog.Lab{}, fmt.Errorf("%s/%s: %w", moduleID, lessonID, ErrLabNotFound)
	}
	return *lesson.Lab, nil
}

// Run sends input to the model with the lab's system prompt and
// parameters. Every submission counts as an attempt; a successful model
// call completes the lab. Model failures are reported in Run.Result, not
// as an error.
func (s *Service) Run(ctx context.Context, id auth.Identity, moduleID, lessonID, input string) (*Run, error) {
	lab, err := s.Lab(moduleID, lessonID)
	if err != nil {
		return nil, err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if len(input) > MaxInputLength {
		return nil, fmt.Errorf("lab input exceeds %d bytes", MaxInputLength)
	}

	ctx = llm.WithPurpose(ctx, "lab")
	result := s.client.SendChatCompletion(ctx, buildMessages(lab, input), labParams(lab))

	p := s.tracker.RecordLabAttempt(ctx, id, moduleID, lessonID, lab.ID, input)
	if result.Success {
		p = s.tracker.MarkLabCompleted(ctx, id, moduleID, lessonID, lab.ID)
	} else {
		s.log.Info("lab call failed", "lab", lab.ID, "kind", result.ErrorKind, "error", result.Error)
	}

	return &Run{LabID: lab.ID, Result: result, Progress: p}, nil
}

// Hint returns the index-th hint of a lab, counting from zero.
func (s *Service) Hint(moduleID, lessonID string, index int) (string, error) {
	lab, err := s.Lab(moduleID, lessonID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(lab.Hints) {
		return "", fmt.Errorf("%s hint %d of %d: %w", lab.ID, index, len(lab.Hints), ErrHintNotFound)
	}
	return lab.Hints[index], nil
}

func buildMessages(lab catalog.Lab, input string) []llm.Message {
	var msgs []llm.Message
	if sys := strings.TrimSpace(lab.SystemPrompt); sys != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: sys})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: input})
}

func labParams(lab catalog.Lab) llm.Params {
	params := make(llm.Params, len(lab.Parameters))
	for k, v := range lab.Parameters {
		params[k] = v
	}
	return params
}
