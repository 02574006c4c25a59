package appraise

import (
	"fmt"
	"strings"
	"time"

	"github.com/paveg/appraise/internal/metrics"
	"github.com/paveg/appraise/internal/monitoring"
	"github.com/paveg/appraise/internal/selection"
)

// SearchReport is the outcome of tuning one ensemble member.
type SearchReport struct {
	Label  string           `json:"label" yaml:"label"`
	Result selection.Result `json:"result" yaml:"result"`
}

// Report summarizes a training run.
type Report struct {
	RunID       string   `json:"run_id" yaml:"run_id"`
	Profile     string   `json:"profile" yaml:"profile"`
	Title       string   `json:"title" yaml:"title"`
	Dataset     string   `json:"dataset" yaml:"dataset"`
	Encoding    string   `json:"encoding" yaml:"encoding"`
	Checksum    uint64   `json:"checksum" yaml:"checksum"`
	Seed        int64    `json:"seed" yaml:"seed"`
	Rows        int      `json:"rows" yaml:"rows"`
	TrainRows   int      `json:"train_rows" yaml:"train_rows"`
	TestRows    int      `json:"test_rows" yaml:"test_rows"`
	Features    []string `json:"features" yaml:"features"`
	Fingerprint uint64   `json:"fingerprint" yaml:"fingerprint"`

	Searches []SearchReport `json:"searches" yaml:"searches"`
	// Test scores the ensemble on the held-out split.
	Test       metrics.Report            `json:"test" yaml:"test"`
	MemberTest map[string]metrics.Report `json:"member_test" yaml:"member_test"`

	Duration time.Duration             `json:"duration" yaml:"duration"`
	Stages   []monitoring.StageMetrics `json:"stages,omitempty" yaml:"stages,omitempty"`
}

// String renders the report the way the CLI prints it.
func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (run %s)\n", r.Title, r.RunID)
	fmt.Fprintf(&sb, "Dataset: %s [%s, %016x]\n", r.Dataset, r.Encoding, r.Checksum)
	fmt.Fprintf(&sb, "Rows: %d (train %d, test %d), features: %d\n", r.Rows, r.TrainRows, r.TestRows, len(r.Features))
	for _, s := range r.Searches {
		fmt.Fprintf(&sb, "Best %s Params: %s\n", s.Label, s.Result.BestParams)
		fmt.Fprintf(&sb, "Best %s R²: %.4f\n", s.Label, s.Result.BestScore)
	}
	fmt.Fprintf(&sb, "Voting Regressor R² on test set: %.4f\n", r.Test.R2)
	fmt.Fprintf(&sb, "Test RMSE: %.2f, MAE: %.2f\n", r.Test.RMSE, r.Test.MAE)
	return sb.String()
}
