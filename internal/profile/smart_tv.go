package profile

import (
	"github.com/paveg/appraise/internal/clean"
	"github.com/paveg/appraise/internal/encode"
	"github.com/paveg/appraise/internal/estimator"
	"github.com/paveg/appraise/internal/selection"
)

// SmartTV is the "smart_tv" profile.
const SmartTV = "smart_tv"

func init() {
	register(Profile{
		Name:  SmartTV,
		Title: "Smart TV Price Assistant",
		Schema: clean.Schema{
			Columns: []clean.Column{
				{Source: "Operating_system", Output: "TV_OS_Category", Kind: clean.Label, Labels: clean.LabelMap{
					Rules: []clean.Rule{
						{Substring: "Android", Label: "Android"},
						{Substring: "Linux", Label: "Linux"},
						{Substring: "Google TV", Label: "Google TV"},
					},
					Default: clean.DefaultLabel,
				}},
				{Source: "Picture_quality", Output: "TV_Picture_Quality_Category", Kind: clean.Label, Labels: clean.LabelMap{
					Rules: []clean.Rule{
						{Substring: "4K", Label: "4K"},
						{Substring: "Full HD", Label: "Full HD"},
						{Substring: "HD Ready", Label: "HD Ready"},
					},
					Default: clean.DefaultLabel,
				}},
				{Source: "Speaker", Output: "TV_Speaker_Output_Category", Kind: clean.Binned, Bins: clean.Binning{
					Bins: []clean.Bin{
						{Label: "10-30W", Min: 10, Max: 30, IncludeMin: true},
						{Label: "30-60W", Min: 30, Max: 60},
						{Label: "60-90W", Min: 60, Max: 90},
					},
					Overflow: "90+W",
				}},
				{Source: "Frequency", Kind: clean.Categorical},
				{Source: "channel", Kind: clean.Categorical},
			},
			Target: "current_price",
		},
		Features: encode.Spec{
			Categorical: []string{
				"TV_OS_Category", "TV_Picture_Quality_Category", "TV_Speaker_Output_Category",
				"Frequency", "channel",
			},
			Target: "current_price",
		},
		Encodings: []string{"utf-8", "latin-1", "cp1252", "iso-8859-1"},
		Searches: []FamilySearch{
			{
				Family: estimator.RandomForestFamily,
				Label:  "RandomForest",
				Grid: selection.Grid{
					"n_estimators":      {100, 200, 300},
					"max_depth":         {10, 20, 30},
					"min_samples_split": {2, 5, 10},
				},
				NIter: 10,
			},
			{
				Family: estimator.GradientBoostingFamily,
				Label:  "XGBoost",
				Grid: selection.Grid{
					"n_estimators":     {100, 200, 300},
					"max_depth":        {5, 10, 15},
					"min_child_weight": {1, 3, 5},
				},
				NIter: 10,
			},
		},
	})
}
