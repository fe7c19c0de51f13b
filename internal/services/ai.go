package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/project-management-api/internal/models"
)

// TaskExtractor turns free text into task drafts.
type TaskExtractor interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, fileName string, audio io.Reader) (string, error)
}

type AIService struct {
	client *openai.Client
	now    func() time.Time
}

type GeneratedTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time          `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		now:    time.Now,
	}
}

const extractionPrompt = `You are a task extraction assistant. Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array of the extracted tasks in this format:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "priority": "one of low, medium, high, urgent",
    "due_date": "deadline in ISO8601 (e.g. 2025-10-28T23:59:59Z), or null when no deadline is stated"
  }
]

Rules:
- Return an empty array [] when the text contains no tasks
- Convert relative expressions such as "tomorrow" or "next week" into concrete timestamps
- due_date must be an ISO8601 string or null
- Return JSON only, without any explanation`

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := s.now().UTC().Format(time.RFC3339)
	prompt := fmt.Sprintf(extractionPrompt, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// parseGeneratedTasks decodes the model output, tolerating a markdown code fence.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// Transcribe converts an audio recording to text with Whisper.
func (s *AIService) Transcribe(ctx context.Context, fileName string, audio io.Reader) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: fileName,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
