package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"

	"kanban-board/domain"
)

const maxFrame = 4 << 20

// StreamBoard follows the board's event stream and calls fn with every
// snapshot, starting with the current one. It returns when ctx ends, the
// server closes the stream or fn returns an error.
func (c *Client) StreamBoard(ctx context.Context, boardID string, fn func(domain.Board) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/boards/"+boardID+"/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	// The shared client's timeout would cut the stream.
	hc := *c.http
	hc.Timeout = 0
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := c.check(resp); err != nil {
		return err
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64<<10), maxFrame)
	var frame bytes.Buffer
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			if frame.Len() == 0 {
				continue
			}
			var b domain.Board
			if err := sonic.Unmarshal(frame.Bytes(), &b); err != nil {
				return fmt.Errorf("decode stream frame: %w", err)
			}
			frame.Reset()
			if err := fn(b); err != nil {
				return err
			}
			continue
		}
		if data, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			if frame.Len() > 0 {
				frame.WriteByte('\n')
			}
			frame.Write(bytes.TrimPrefix(data, []byte(" ")))
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}
