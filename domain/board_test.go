package domain

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalIncludesZeroPosition(t *testing.T) {
	task := Task{ID: "t1", ColumnID: "c1", Title: "Title", Priority: PriorityLow}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	if !strings.Contains(string(payload), "\"position\":0") {
		t.Fatalf("expected position field to be present, got %s", payload)
	}
}

func TestParsePriority(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    Priority
		wantErr bool
	}{
		"empty defaults": {in: "", want: PriorityMedium},
		"urgent":         {in: "urgent", want: PriorityUrgent},
		"unknown":        {in: "critical", wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBoardFindTask(t *testing.T) {
	b := Board{Columns: []Column{
		{ID: "a", Tasks: []Task{{ID: "t1"}}},
		{ID: "b", Tasks: []Task{{ID: "t2"}, {ID: "t3"}}},
	}}

	task, ci, ok := b.FindTask("t3")
	if !ok || ci != 1 || task.ID != "t3" {
		t.Fatalf("unexpected lookup result: %v %d %v", task, ci, ok)
	}
	if _, _, ok := b.FindTask("missing"); ok {
		t.Fatal("expected missing task to be absent")
	}
	if idx := b.ColumnIndex("b"); idx != 1 {
		t.Fatalf("expected column index 1, got %d", idx)
	}
}
