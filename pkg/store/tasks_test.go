package store

import "testing"

func TestAllowedTransitions(t *testing.T) {
	tests := []struct {
		name string
		from TaskStatus
		to   TaskStatus
		want bool
	}{
		{"queued to running", TaskQueued, TaskRunning, true},
		{"queued to cancelled", TaskQueued, TaskCancelled, true},
		{"queued to completed is illegal", TaskQueued, TaskCompleted, false},
		{"running to completed", TaskRunning, TaskCompleted, true},
		{"running to failed", TaskRunning, TaskFailed, true},
		{"running to cancelled", TaskRunning, TaskCancelled, true},
		{"running to queued is illegal", TaskRunning, TaskQueued, false},
		{"completed is terminal", TaskCompleted, TaskRunning, false},
		{"unknown source status", TaskStatus("bogus"), TaskRunning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := allowedTransitions[tt.from][tt.to]
			if got != tt.want {
				t.Errorf("allowedTransitions[%s][%s] = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTaskStatus_Terminal(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{TaskQueued, false},
		{TaskRunning, false},
		{TaskCompleted, true},
		{TaskFailed, true},
		{TaskCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestSortColumns_WhitelistsOnlyKnownFields(t *testing.T) {
	want := []string{"created_at", "status", "agent_name", "cost_usd", "completed_at"}
	if len(sortColumns) != len(want) {
		t.Fatalf("sortColumns has %d entries, want %d", len(sortColumns), len(want))
	}
	for _, col := range want {
		if sortColumns[col] != col {
			t.Errorf("sortColumns[%q] = %q, want %q", col, sortColumns[col], col)
		}
	}
	if _, ok := sortColumns["'; DROP TABLE tasks; --"]; ok {
		t.Errorf("sortColumns must not whitelist arbitrary input")
	}
}
