package api

import (
	"net/http"
	"testing"

	"github.com/bytedance/sonic"

	"kanban-board/domain"
)

type boardFixture struct {
	token   string
	boardID string
	columns []string
}

func seedBoard(t *testing.T, env *testEnv, token, title string, columns ...string) boardFixture {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/boards", token, map[string]string{"title": title})
	expectStatus(t, rec, http.StatusCreated)
	var b domain.Board
	decodeJSON(t, rec, &b)
	fx := boardFixture{token: token, boardID: b.ID}
	for _, name := range columns {
		rec := env.do(t, http.MethodPost, "/columns", token, map[string]any{"title": name, "boardId": b.ID})
		expectStatus(t, rec, http.StatusCreated)
		var col domain.Column
		decodeJSON(t, rec, &col)
		fx.columns = append(fx.columns, col.ID)
	}
	return fx
}

func (fx boardFixture) addTask(t *testing.T, env *testEnv, column int, title string) domain.Task {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/tasks", fx.token, map[string]any{"title": title, "columnId": fx.columns[column]})
	expectStatus(t, rec, http.StatusCreated)
	var task domain.Task
	decodeJSON(t, rec, &task)
	return task
}

func (fx boardFixture) fetch(t *testing.T, env *testEnv) domain.Board {
	t.Helper()
	rec := env.do(t, http.MethodGet, "/boards/"+fx.boardID, fx.token, nil)
	expectStatus(t, rec, http.StatusOK)
	var b domain.Board
	decodeJSON(t, rec, &b)
	return b
}

func taskTitles(c domain.Column) []string {
	out := make([]string, len(c.Tasks))
	for i, task := range c.Tasks {
		out[i] = task.Title
	}
	return out
}

func assertPositions(t *testing.T, b domain.Board) {
	t.Helper()
	for ci, c := range b.Columns {
		if c.Position != ci {
			t.Fatalf("column %s at index %d has position %d", c.ID, ci, c.Position)
		}
		for ti, task := range c.Tasks {
			if task.Position != ti || task.ColumnID != c.ID {
				t.Fatalf("task %s at %d in %s has position %d column %s", task.ID, ti, c.ID, task.Position, task.ColumnID)
			}
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTaskCreateDefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")
	fx := seedBoard(t, env, token, "Work", "To Do")

	task := fx.addTask(t, env, 0, "Write docs")
	if task.Priority != domain.PriorityMedium || task.Position != 0 {
		t.Fatalf("unexpected defaults %+v", task)
	}

	tests := map[string]map[string]any{
		"missing title":     {"columnId": fx.columns[0]},
		"bad priority":      {"title": "x", "columnId": fx.columns[0], "priority": "critical"},
		"negative position": {"title": "x", "columnId": fx.columns[0], "position": -1},
		"missing column":    {"title": "x"},
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			expectStatus(t, env.do(t, http.MethodPost, "/tasks", token, body), http.StatusBadRequest)
		})
	}
	expectStatus(t, env.do(t, http.MethodPost, "/tasks", token, map[string]any{"title": "x", "columnId": "nope"}), http.StatusNotFound)
}

func TestTaskMoveWithinColumnNormalizes(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")
	fx := seedBoard(t, env, token, "Work", "To Do")
	t1 := fx.addTask(t, env, 0, "T1")
	fx.addTask(t, env, 0, "T2")
	fx.addTask(t, env, 0, "T3")

	rec := env.do(t, http.MethodPatch, "/tasks/"+t1.ID, token, map[string]any{"position": 1})
	expectStatus(t, rec, http.StatusOK)

	b := fx.fetch(t, env)
	assertPositions(t, b)
	if got := taskTitles(b.Columns[0]); !equalStrings(got, []string{"T2", "T1", "T3"}) {
		t.Fatalf("unexpected order %v", got)
	}

	moves := env.events.ofType(domain.TaskMoved)
	if len(moves) != 1 {
		t.Fatalf("expected one task-moved event, got %d", len(moves))
	}
	var data domain.MoveData
	if err := sonic.Unmarshal(moves[0].Data, &data); err != nil {
		t.Fatalf("decode move data: %v", err)
	}
	if data.ContainerID != fx.columns[0] || data.Position != 1 {
		t.Fatalf("unexpected move data %+v", data)
	}
	if len(env.events.ofType(domain.TaskUpdated)) != 0 {
		t.Fatal("position-only patch must not emit task-updated")
	}
}

func TestTaskMoveAcrossColumnsToEmptyColumn(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")
	fx := seedBoard(t, env, token, "Work", "A", "B")
	t1 := fx.addTask(t, env, 0, "T1")

	rec := env.do(t, http.MethodPatch, "/tasks/"+t1.ID, token, map[string]any{"columnId": fx.columns[1], "position": 0})
	expectStatus(t, rec, http.StatusOK)
	var moved domain.Task
	decodeJSON(t, rec, &moved)
	if moved.ColumnID != fx.columns[1] || moved.Position != 0 {
		t.Fatalf("unexpected moved task %+v", moved)
	}

	b := fx.fetch(t, env)
	assertPositions(t, b)
	if len(b.Columns[0].Tasks) != 0 || len(b.Columns[1].Tasks) != 1 {
		t.Fatalf("unexpected columns %+v", b.Columns)
	}
}

func TestTaskPositionBeyondEndIsClamped(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")
	fx := seedBoard(t, env, token, "Work", "A")
	t1 := fx.addTask(t, env, 0, "T1")
	fx.addTask(t, env, 0, "T2")

	rec := env.do(t, http.MethodPatch, "/tasks/"+t1.ID, token, map[string]any{"position": 99})
	expectStatus(t, rec, http.StatusOK)
	var moved domain.Task
	decodeJSON(t, rec, &moved)
	if moved.Position != 1 {
		t.Fatalf("expected clamped position 1, got %d", moved.Position)
	}
	assertPositions(t, fx.fetch(t, env))
}

func TestTaskMoveAcrossBoardsNotifiesBoth(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")
	src := seedBoard(t, env, token, "Source", "A")
	dst := seedBoard(t, env, token, "Target", "B")
	task := src.addTask(t, env, 0, "Traveller")
	env.store.invalidated = nil

	rec := env.do(t, http.MethodPatch, "/tasks/"+task.ID, token, map[string]any{"columnId": dst.columns[0]})
	expectStatus(t, rec, http.StatusOK)

	boards := map[string]bool{}
	for _, ev := range env.events.ofType(domain.TaskMoved) {
		boards[ev.BoardID] = true
	}
	if !boards[src.boardID] || !boards[dst.boardID] {
		t.Fatalf("expected task-moved on both boards, got %v", boards)
	}
	evicted := map[string]bool{}
	for _, id := range env.store.invalidated {
		evicted[id] = true
	}
	if !evicted[src.boardID] || !evicted[dst.boardID] {
		t.Fatalf("expected both boards evicted, got %v", env.store.invalidated)
	}
}

func TestTaskOwnership(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := env.signup(t, "Alice", "alice@example.com")
	bobToken, _ := env.signup(t, "Bobby", "bob@example.com")
	alice := seedBoard(t, env, aliceToken, "Alice", "A")
	bob := seedBoard(t, env, bobToken, "Bob", "B")
	task := alice.addTask(t, env, 0, "Private")

	expectStatus(t, env.do(t, http.MethodGet, "/tasks/"+task.ID, bobToken, nil), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodDelete, "/tasks/"+task.ID, bobToken, nil), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodGet, "/tasks/missing", bobToken, nil), http.StatusNotFound)
	// Moving into a column the caller does not own is rejected.
	expectStatus(t, env.do(t, http.MethodPatch, "/tasks/"+task.ID, aliceToken, map[string]any{"columnId": bob.columns[0]}), http.StatusForbidden)

	rec := env.do(t, http.MethodGet, "/tasks", bobToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var tasks []domain.Task
	decodeJSON(t, rec, &tasks)
	if len(tasks) != 0 {
		t.Fatalf("bob sees foreign tasks: %+v", tasks)
	}
}

func TestTaskUpdateFieldsAndDelete(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")
	fx := seedBoard(t, env, token, "Work", "A")
	t1 := fx.addTask(t, env, 0, "T1")
	fx.addTask(t, env, 0, "T2")

	rec := env.do(t, http.MethodPatch, "/tasks/"+t1.ID, token, map[string]any{"title": "Renamed", "priority": "urgent", "description": " notes "})
	expectStatus(t, rec, http.StatusOK)
	var updated domain.Task
	decodeJSON(t, rec, &updated)
	if updated.Title != "Renamed" || updated.Priority != domain.PriorityUrgent || updated.Description != "notes" || updated.Position != 0 {
		t.Fatalf("unexpected update %+v", updated)
	}
	if len(env.events.ofType(domain.TaskUpdated)) != 1 || len(env.events.ofType(domain.TaskMoved)) != 0 {
		t.Fatal("expected exactly one task-updated event and no move")
	}
	expectStatus(t, env.do(t, http.MethodPatch, "/tasks/"+t1.ID, token, map[string]any{"priority": "someday"}), http.StatusBadRequest)

	expectStatus(t, env.do(t, http.MethodDelete, "/tasks/"+t1.ID, token, nil), http.StatusNoContent)
	b := fx.fetch(t, env)
	assertPositions(t, b)
	if got := taskTitles(b.Columns[0]); !equalStrings(got, []string{"T2"}) {
		t.Fatalf("unexpected remaining tasks %v", got)
	}
}

func TestColumnReorder(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")
	fx := seedBoard(t, env, token, "Work", "C1", "C2", "C3")

	rec := env.do(t, http.MethodPatch, "/columns/"+fx.columns[0], token, map[string]any{"position": 2})
	expectStatus(t, rec, http.StatusOK)

	b := fx.fetch(t, env)
	assertPositions(t, b)
	got := []string{b.Columns[0].Title, b.Columns[1].Title, b.Columns[2].Title}
	if !equalStrings(got, []string{"C2", "C3", "C1"}) {
		t.Fatalf("unexpected column order %v", got)
	}
	moves := env.events.ofType(domain.ColumnMoved)
	if len(moves) != 1 || moves[0].EntityID != fx.columns[0] {
		t.Fatalf("expected one column-moved event, got %+v", moves)
	}
}

func TestColumnCreateAtPositionAndDelete(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")
	fx := seedBoard(t, env, token, "Work", "A", "B")

	rec := env.do(t, http.MethodPost, "/columns", token, map[string]any{"title": "First", "boardId": fx.boardID, "position": 0})
	expectStatus(t, rec, http.StatusCreated)
	b := fx.fetch(t, env)
	assertPositions(t, b)
	if b.Columns[0].Title != "First" {
		t.Fatalf("expected inserted column first, got %q", b.Columns[0].Title)
	}

	expectStatus(t, env.do(t, http.MethodDelete, "/columns/"+fx.columns[0], token, nil), http.StatusNoContent)
	b = fx.fetch(t, env)
	assertPositions(t, b)
	if len(b.Columns) != 2 {
		t.Fatalf("expected two columns, got %d", len(b.Columns))
	}
}

func TestColumnBoardChange(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := env.signup(t, "Alice", "alice@example.com")
	bobToken, _ := env.signup(t, "Bobby", "bob@example.com")
	first := seedBoard(t, env, aliceToken, "First", "A")
	second := seedBoard(t, env, aliceToken, "Second")
	foreign := seedBoard(t, env, bobToken, "Foreign")

	col := first.columns[0]
	expectStatus(t, env.do(t, http.MethodPatch, "/columns/"+col, aliceToken, map[string]any{"boardId": second.boardID}), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPatch, "/columns/"+col, aliceToken, map[string]any{"boardId": foreign.boardID}), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPatch, "/columns/"+col, aliceToken, map[string]any{"boardId": "missing"}), http.StatusNotFound)

	rec := env.do(t, http.MethodPatch, "/columns/"+col, aliceToken, map[string]any{"boardId": first.boardID, "title": "Renamed"})
	expectStatus(t, rec, http.StatusOK)
	var updated domain.Column
	decodeJSON(t, rec, &updated)
	if updated.Title != "Renamed" {
		t.Fatalf("unexpected column %+v", updated)
	}
	expectStatus(t, env.do(t, http.MethodGet, "/columns/"+col, bobToken, nil), http.StatusForbidden)

	rec = env.do(t, http.MethodGet, "/columns", aliceToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var cols []domain.Column
	decodeJSON(t, rec, &cols)
	if len(cols) != 1 {
		t.Fatalf("expected one column, got %d", len(cols))
	}
}
