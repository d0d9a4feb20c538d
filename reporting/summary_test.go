package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BrowserStackCE/browserstack-playwright-nx/runner"
)

func TestStatusString(t *testing.T) {
	assert.Equal(t, "✓ pass", StatusString(&runner.Result{Success: true}))
	assert.Equal(t, "✗ fail", StatusString(&runner.Result{Success: false, ExitCode: 1}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m3.004s", formatDuration(2*time.Minute+3*time.Second+4*time.Millisecond+500*time.Microsecond))
}

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name     string
		result   *runner.Result
		contains []string
	}{
		{
			name: "passing run",
			result: &runner.Result{
				RunID:    "run-1",
				Project:  "shop-e2e",
				Success:  true,
				Args:     []string{"--browser=chromium", "--headed"},
				Duration: 42 * time.Second,
			},
			contains: []string{"shop-e2e", "run-1", "--browser=chromium --headed", "42s", "PASS"},
		},
		{
			name: "failing run without args",
			result: &runner.Result{
				RunID:    "run-2",
				Project:  "admin-e2e",
				ExitCode: 1,
				Duration: 900 * time.Millisecond,
			},
			contains: []string{"admin-e2e", "(none)", "900ms", "FAIL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintSummary(&buf, tt.result, false)
			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestSummaryTableColored(t *testing.T) {
	r := &runner.Result{Project: "p", Success: true}
	assert.Contains(t, SummaryTable(r, false).Render(), "+-")
	assert.NotContains(t, SummaryTable(r, true).Render(), "+-")
}
