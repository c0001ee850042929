package welcomesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const systemPrompt = "You are a friendly and encouraging onboarding assistant for an online learning platform. " +
	"Write a warm, personalized welcome message of about 100 to 150 words for a newly registered student. " +
	"Mention the student by name and the course they are enrolled in. " +
	"If learning interests are provided, weave them in naturally. Do not use placeholders."

type openaiService struct {
	conf   core.OpenAIConfig
	client *http.Client
	logger core.Logger
}

var _ core.WelcomeService = (*openaiService)(nil)

func NewOpenAIService(conf *core.Config, logger core.Logger) *openaiService {
	return &openaiService{
		conf:   conf.OpenAI,
		client: &http.Client{Timeout: conf.OpenAI.Timeout},
		logger: logger,
	}
}

type (
	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	chatRequest struct {
		Model          string          `json:"model"`
		Messages       []chatMessage   `json:"messages"`
		ResponseFormat *responseFormat `json:"response_format,omitempty"`
	}

	responseFormat struct {
		Type       string     `json:"type"`
		JSONSchema jsonSchema `json:"json_schema"`
	}

	jsonSchema struct {
		Name   string                 `json:"name"`
		Schema map[string]interface{} `json:"schema"`
		Strict bool                   `json:"strict"`
	}

	chatResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	welcomeOutput struct {
		PersonalizedWelcomeMessage string `json:"personalizedWelcomeMessage"`
	}
)

func welcomeSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"personalizedWelcomeMessage": map[string]interface{}{"type": "string"},
		},
		"required":             []string{"personalizedWelcomeMessage"},
		"additionalProperties": false,
	}
}

func (svc *openaiService) Generate(ctx context.Context, in core.WelcomeInput) (string, error) {
	if svc.conf.APIKey == "" {
		return "", errors.New("missing OpenAI API key")
	}

	userPrompt := fmt.Sprintf(
		"Student name: %s\nCourse name: %s\nRegistration date: %s\nLearning interests: %s",
		in.StudentName, in.CourseName, in.RegistrationDate, in.LearningInterests)

	reqBody := chatRequest{
		Model: svc.conf.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   "welcome_message",
				Schema: welcomeSchema(),
				Strict: true,
			},
		},
	}

	payload, err := json.Marshal(&reqBody)
	if err != nil {
		return "", errors.Wrap(err, "encoding request")
	}

	url := strings.TrimRight(svc.conf.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+svc.conf.APIKey)

	res, err := svc.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling OpenAI")
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading response")
	}

	var parsed chatResponse
	if err = json.Unmarshal(body, &parsed); err != nil {
		return "", errors.Wrapf(err, "decoding response (status %d)", res.StatusCode)
	}
	if res.StatusCode >= http.StatusBadRequest {
		if parsed.Error != nil {
			return "", errors.Errorf("OpenAI error (status %d): %s", res.StatusCode, parsed.Error.Message)
		}
		return "", errors.Errorf("OpenAI error (status %d)", res.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	if refusal := parsed.Choices[0].Message.Refusal; refusal != "" {
		return "", errors.Errorf("model refused: %s", refusal)
	}

	var out welcomeOutput
	if err = json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &out); err != nil {
		return "", errors.Wrap(err, "parsing model JSON")
	}
	if strings.TrimSpace(out.PersonalizedWelcomeMessage) == "" {
		return "", errors.New("empty welcome message")
	}
	return out.PersonalizedWelcomeMessage, nil
}
