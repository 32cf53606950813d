package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const systemPrompt = `You are a sports nutritionist. Build a one-day meal plan as JSON matching the given schema.
Use breakfast, lunch, dinner and zero or more snacks. Calories are integers. The sum of all meal
calories should be close to the daily target. Alternatives list two or three swaps separated by commas.`

// Generator produces a meal plan for a calorie target.
type Generator interface {
	Generate(ctx context.Context, calories int, goal Goal) (*Plan, error)
}

// ChatClient is the part of *openai.Client the generator needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type OpenAIGenerator struct {
	client   ChatClient
	model    string
	schema   *jsonschema.Definition
	validate *validator.Validate
}

// NewOpenAIClient builds a client for any OpenAI-compatible endpoint.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func NewOpenAIGenerator(client ChatClient, model string) (*OpenAIGenerator, error) {
	schema, err := jsonschema.GenerateSchemaForType(Plan{})
	if err != nil {
		return nil, fmt.Errorf("failed to build meal plan schema: %w", err)
	}
	return &OpenAIGenerator{
		client:   client,
		model:    model,
		schema:   schema,
		validate: validator.New(),
	}, nil
}

// Generate makes exactly one chat completion call. Failures are returned to
// the caller as ErrGenerationFailed; nothing is retried or cached.
func (g *OpenAIGenerator) Generate(ctx context.Context, calories int, goal Goal) (*Plan, error) {
	if calories <= 0 {
		return nil, fmt.Errorf("%w: calorie target must be positive", api.ErrValidation)
	}
	if goal == "" {
		goal = GoalMaintenance
	}

	start := time.Now()
	plan, err := g.generate(ctx, calories, goal)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordMealPlan("failed", elapsed)
		logger.WithError(err).Warn("meal plan generation failed", "calories", calories, "goal", goal)
		return nil, err
	}

	metrics.RecordMealPlan("success", elapsed)
	return plan, nil
}

func (g *OpenAIGenerator) generate(ctx context.Context, calories int, goal Goal) (*Plan, error) {
	input, _ := json.Marshal(map[string]any{"calories": calories, "goal": goal})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(input)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "meal_plan",
				Schema: g.schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", api.ErrGenerationFailed)
	}

	return g.decode(resp.Choices[0].Message.Content)
}

func (g *OpenAIGenerator) decode(content string) (*Plan, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", api.ErrGenerationFailed)
	}

	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrGenerationFailed, err)
	}
	if plan.Snacks == nil {
		plan.Snacks = []Meal{}
	}

	if err := g.validate.Struct(plan); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: field %s failed %s", api.ErrGenerationFailed, verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %v", api.ErrGenerationFailed, err)
	}

	return &plan, nil
}
