package mealplan

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

type Goal string

const (
	GoalBulking     Goal = "bulking"
	GoalWeightLoss  Goal = "weightLoss"
	GoalMaintenance Goal = "maintenance"
)

// Meal is one dish with its calorie estimate and swap suggestions.
type Meal struct {
	Name         string `json:"name" validate:"required" description:"Dish name"`
	Description  string `json:"description" validate:"required" description:"Short preparation and portion notes"`
	Calories     int    `json:"calories" validate:"gt=0" description:"Estimated calories for the dish"`
	Alternatives string `json:"alternatives" description:"Comma separated swap options"`
}

// Plan is a generated daily meal plan. It is stored as a JSONB snapshot on
// the member and replaced wholesale on regeneration.
type Plan struct {
	Title         string `json:"title" validate:"required"`
	Breakfast     Meal   `json:"breakfast"`
	Lunch         Meal   `json:"lunch"`
	Dinner        Meal   `json:"dinner"`
	Snacks        []Meal `json:"snacks" validate:"dive"`
	TotalCalories int    `json:"totalCalories" validate:"gt=0"`
}

type GenerateRequest struct {
	Calories int  `json:"calories" binding:"required,gt=0,max=10000"`
	Goal     Goal `json:"goal" binding:"omitempty,oneof=bulking weightLoss maintenance"`
}

func (p Plan) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Plan) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		return errors.New("meal plan: scan of NULL into Plan")
	default:
		return fmt.Errorf("meal plan: unsupported scan type %T", src)
	}
	return json.Unmarshal(data, p)
}
