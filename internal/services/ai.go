package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// TicketDrafter turns free text into ticket drafts.
type TicketDrafter interface {
	DraftTickets(ctx context.Context, projectName, text string) ([]GeneratedTicket, error)
}

type AIService struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

type GeneratedTicket struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	EstimatedTime float64    `json:"estimated_time"`
	DueDate       *time.Time `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
		now:    time.Now,
	}
}

// DraftTickets asks the model to split text into tickets for projectName
func (s *AIService) DraftTickets(ctx context.Context, projectName, text string) ([]GeneratedTicket, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := s.now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You are a project planning assistant. Split the following text into concrete work tickets for the project %q.

Current time: %s

Text:
%s

Return a JSON array of tickets in this format:
[
  {
    "title": "short ticket title",
    "description": "what has to be done",
    "estimated_time": 4,
    "due_date": "deadline in ISO8601 (e.g. 2025-10-28T23:59:59Z), or null when none is stated"
  }
]

Rules:
- Return an empty array [] when the text contains no work
- estimated_time is a number of hours; use 0 when you cannot estimate
- Convert relative deadlines ("tomorrow", "next week") into concrete dates
- Return JSON only, without explanations`, projectName, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
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

	return parseGeneratedTickets(resp.Choices[0].Message.Content)
}

// parseGeneratedTickets accepts a bare JSON array, optionally inside a
// markdown code fence.
func parseGeneratedTickets(content string) ([]GeneratedTicket, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var tickets []GeneratedTicket
	if err := json.Unmarshal([]byte(trimmed), &tickets); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tickets, nil
}
