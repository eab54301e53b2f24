package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"kanban-board/domain"
)

func readFrame(t *testing.T, r *bufio.Reader) domain.Board {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var b domain.Board
		if err := sonic.UnmarshalString(strings.TrimPrefix(strings.TrimSpace(line), "data: "), &b); err != nil {
			t.Fatalf("decode frame %q: %v", line, err)
		}
		return b
	}
}

func TestStreamBoardSendsSnapshotAndUpdates(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "Alice", "alice@example.com")
	fx := seedBoard(t, env, token, "Live", "A")

	srv := httptest.NewServer(env.e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/boards/"+fx.boardID+"/stream?token="+token, nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	first := readFrame(t, r)
	if first.ID != fx.boardID || len(first.Columns[0].Tasks) != 0 {
		t.Fatalf("unexpected snapshot %+v", first)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.broker.Subscribers(fx.boardID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	fx.addTask(t, env, 0, "Fresh")

	second := readFrame(t, r)
	if len(second.Columns[0].Tasks) != 1 || second.Columns[0].Tasks[0].Title != "Fresh" {
		t.Fatalf("expected update frame with new task, got %+v", second)
	}
}

func TestStreamBoardRejectsForeignBoard(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := env.signup(t, "Alice", "alice@example.com")
	bobToken, _ := env.signup(t, "Bobby", "bob@example.com")
	fx := seedBoard(t, env, aliceToken, "Private")

	expectStatus(t, env.do(t, http.MethodGet, "/boards/"+fx.boardID+"/stream", bobToken, nil), http.StatusForbidden)
}

func TestStreamBoardUnavailableWithoutBroker(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Broker = nil })
	token, _ := env.signup(t, "Alice", "alice@example.com")
	fx := seedBoard(t, env, token, "Quiet")

	expectStatus(t, env.do(t, http.MethodGet, "/boards/"+fx.boardID+"/stream", token, nil), http.StatusNotFound)
}
