package profile

import (
	"github.com/paveg/appraise/internal/clean"
	"github.com/paveg/appraise/internal/encode"
	"github.com/paveg/appraise/internal/estimator"
	"github.com/paveg/appraise/internal/selection"
)

// AirConditioner is the "ac" profile.
const AirConditioner = "ac"

func init() {
	register(Profile{
		Name:  AirConditioner,
		Title: "Smart Air Conditioner Assistant",
		Schema: clean.Schema{
			Columns: []clean.Column{
				{Source: "Power_Consumption", Kind: clean.Quantity},
				{Source: "Noise_level", Kind: clean.LeadingNumber},
				{Source: "Refrigerant", Kind: clean.Label, Labels: clean.LabelMap{
					Rules: []clean.Rule{
						{Substring: "R-32", Label: "R-32"},
						{Substring: "R410a", Label: "R410a"},
					},
					Default: clean.DefaultLabel,
				}},
				{Source: "Condenser_Coil", Kind: clean.Categorical},
			},
			Target: "Price",
		},
		Features: encode.Spec{
			Categorical: []string{"Condenser_Coil", "Refrigerant"},
			Numerical:   []string{"Power_Consumption", "Noise_level"},
			Scale:       true,
			Target:      "Price",
		},
		Encodings: []string{"utf-8"},
		Searches: []FamilySearch{
			{
				Family: estimator.RandomForestFamily,
				Label:  "RandomForest",
				Grid: selection.Grid{
					"n_estimators":      {100, 200, 300, 500},
					"max_depth":         {10, 20, 30, 50},
					"min_samples_split": {2, 5, 10},
				},
				NIter: 20,
			},
			{
				Family: estimator.GradientBoostingFamily,
				Label:  "XGBoost",
				Grid: selection.Grid{
					"n_estimators":     {100, 200, 300, 500},
					"max_depth":        {5, 10, 15},
					"learning_rate":    {0.01, 0.1, 0.2},
					"min_child_weight": {1, 3, 5},
				},
				NIter: 20,
			},
		},
	})
}
