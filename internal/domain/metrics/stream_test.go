package metrics

import (
	"testing"
	"time"
)

func TestStreamRecord_Succeeded(t *testing.T) {
	if !(StreamRecord{Status: StatusCompleted}).Succeeded() {
		t.Error("completed record should report success")
	}
	if (StreamRecord{Status: StatusFailed}).Succeeded() {
		t.Error("failed record should not report success")
	}
}

func TestTimePeriod_Duration(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := TimePeriod{Start: start, End: start.Add(90 * time.Minute)}
	if p.Duration() != 90*time.Minute {
		t.Errorf("Duration() = %v, want 90m", p.Duration())
	}
}

func TestFilterBuilders(t *testing.T) {
	f := DefaultFilter()
	if f.Limit != 100 {
		t.Errorf("Limit = %d, want 100", f.Limit)
	}
	if got := f.EndDate.Sub(f.StartDate); got != 24*time.Hour {
		t.Errorf("default window = %v, want 24h", got)
	}

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	f = f.WithPeriod(start, end).WithModel("GPT_4O")
	if !f.StartDate.Equal(start) || !f.EndDate.Equal(end) || f.Model != "GPT_4O" {
		t.Errorf("unexpected filter %+v", f)
	}

	week := LastDays(7)
	if got := week.EndDate.Sub(week.StartDate); got != 7*24*time.Hour {
		t.Errorf("LastDays(7) window = %v", got)
	}
}
