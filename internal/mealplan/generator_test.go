package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gymdesk/internal/api"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

const validPlan = `{
  "title": "Lean bulk day",
  "breakfast": {"name": "Oats", "description": "Oats with milk and banana", "calories": 650, "alternatives": "granola, eggs on toast"},
  "lunch": {"name": "Chicken rice", "description": "Grilled chicken, rice, salad", "calories": 900, "alternatives": "turkey wrap"},
  "dinner": {"name": "Salmon", "description": "Salmon with potatoes", "calories": 850, "alternatives": "tofu stir fry"},
  "snacks": [{"name": "Yogurt", "description": "Greek yogurt with honey", "calories": 250, "alternatives": "cottage cheese"}],
  "totalCalories": 2650
}`

func newGenerator(t *testing.T, client ChatClient) *OpenAIGenerator {
	g, err := NewOpenAIGenerator(client, "gpt-4o-mini")
	require.NoError(t, err)
	return g
}

func TestGenerate_Success(t *testing.T) {
	client := new(MockChatClient)
	client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-4o-mini" &&
			req.ResponseFormat != nil &&
			req.ResponseFormat.Type == openai.ChatCompletionResponseFormatTypeJSONSchema &&
			len(req.Messages) == 2 &&
			req.Messages[1].Content == `{"calories":2600,"goal":"bulking"}`
	})).Return(reply(validPlan), nil).Once()

	plan, err := newGenerator(t, client).Generate(context.Background(), 2600, GoalBulking)
	require.NoError(t, err)
	assert.Equal(t, "Lean bulk day", plan.Title)
	assert.Equal(t, 650, plan.Breakfast.Calories)
	assert.Len(t, plan.Snacks, 1)
	assert.Equal(t, 2650, plan.TotalCalories)
	client.AssertExpectations(t)
}

func TestGenerate_DefaultsGoal(t *testing.T) {
	client := new(MockChatClient)
	client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Messages[1].Content == `{"calories":2000,"goal":"maintenance"}`
	})).Return(reply(validPlan), nil)

	_, err := newGenerator(t, client).Generate(context.Background(), 2000, "")
	require.NoError(t, err)
}

func TestGenerate_CodeFenceAndTrailingComma(t *testing.T) {
	content := "Here you go:\n```json\n" + `{
  "title": "Cut",
  "breakfast": {"name": "Eggs", "description": "Two eggs", "calories": 300, "alternatives": "tofu",},
  "lunch": {"name": "Salad", "description": "Tuna salad", "calories": 500, "alternatives": "soup"},
  "dinner": {"name": "Fish", "description": "White fish", "calories": 600, "alternatives": "chicken"},
  "snacks": [],
  "totalCalories": 1400,
}` + "\n```"

	client := new(MockChatClient)
	client.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply(content), nil)

	plan, err := newGenerator(t, client).Generate(context.Background(), 1500, GoalWeightLoss)
	require.NoError(t, err)
	assert.Equal(t, "Cut", plan.Title)
	assert.NotNil(t, plan.Snacks)
	assert.Empty(t, plan.Snacks)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		resp    openai.ChatCompletionResponse
		callErr error
	}{
		{"transport error", openai.ChatCompletionResponse{}, errors.New("503 from upstream")},
		{"no choices", openai.ChatCompletionResponse{}, nil},
		{"empty content", reply(""), nil},
		{"prose only", reply("Sorry, I cannot help with that."), nil},
		{"broken json", reply(`{"title": "x", "breakfast": `), nil},
		{"missing meal name", reply(`{"title":"x","breakfast":{"name":"","description":"d","calories":1,"alternatives":""},
			"lunch":{"name":"l","description":"d","calories":1,"alternatives":""},
			"dinner":{"name":"d","description":"d","calories":1,"alternatives":""},"snacks":[],"totalCalories":3}`), nil},
		{"zero total", reply(`{"title":"x","breakfast":{"name":"b","description":"d","calories":1,"alternatives":""},
			"lunch":{"name":"l","description":"d","calories":1,"alternatives":""},
			"dinner":{"name":"d","description":"d","calories":1,"alternatives":""},"snacks":[],"totalCalories":0}`), nil},
		{"bad snack", reply(`{"title":"x","breakfast":{"name":"b","description":"d","calories":1,"alternatives":""},
			"lunch":{"name":"l","description":"d","calories":1,"alternatives":""},
			"dinner":{"name":"d","description":"d","calories":1,"alternatives":""},
			"snacks":[{"name":"s","description":"d","calories":-5,"alternatives":""}],"totalCalories":3}`), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockChatClient)
			client.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(tt.resp, tt.callErr).Once()

			_, err := newGenerator(t, client).Generate(context.Background(), 2000, GoalMaintenance)
			assert.ErrorIs(t, err, api.ErrGenerationFailed)
			client.AssertNumberOfCalls(t, "CreateChatCompletion", 1)
		})
	}
}

func TestGenerate_RejectsNonPositiveTarget(t *testing.T) {
	client := new(MockChatClient)

	_, err := newGenerator(t, client).Generate(context.Background(), 0, GoalMaintenance)
	assert.ErrorIs(t, err, api.ErrValidation)
	client.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
}

func TestPlan_RoundTripIsLossless(t *testing.T) {
	for _, snacks := range [][]Meal{
		{},
		{{Name: "Nuts", Description: "Almonds", Calories: 180, Alternatives: "cashews"}},
		{
			{Name: "Nuts", Description: "Almonds", Calories: 180, Alternatives: "cashews"},
			{Name: "Shake", Description: "Whey and milk", Calories: 320, Alternatives: ""},
			{Name: "Fruit", Description: "Apple \"Gala\" ½", Calories: 60, Alternatives: "pear, orange"},
		},
	} {
		original := Plan{
			Title:         "Maintenance",
			Breakfast:     Meal{Name: "Oats", Description: "Oats", Calories: 500, Alternatives: "eggs"},
			Lunch:         Meal{Name: "Bowl", Description: "Rice bowl", Calories: 700, Alternatives: "wrap"},
			Dinner:        Meal{Name: "Steak", Description: "Steak and veg", Calories: 800, Alternatives: "fish"},
			Snacks:        snacks,
			TotalCalories: 2000,
		}

		stored, err := original.Value()
		require.NoError(t, err)

		var restored Plan
		require.NoError(t, restored.Scan(stored))
		assert.Equal(t, original, restored)

		again, err := restored.Value()
		require.NoError(t, err)
		assert.JSONEq(t, string(stored.([]byte)), string(again.([]byte)))
	}
}

func TestPlan_ScanRejectsUnknownTypes(t *testing.T) {
	var p Plan
	assert.Error(t, p.Scan(42))
	assert.Error(t, p.Scan(nil))
	assert.NoError(t, p.Scan(`{"title":"t"}`))
	assert.Equal(t, "t", p.Title)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON(`noise {"a":1} trailing`))
	assert.Equal(t, `{"a":[1,2]}`, extractJSON(`{"a":[1,2,],}`))
	assert.Empty(t, extractJSON("no object here"))

	var v map[string]any
	assert.NoError(t, json.Unmarshal([]byte(extractJSON("```\n{\"b\": true}\n```")), &v))
}
