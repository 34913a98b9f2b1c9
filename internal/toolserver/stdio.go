package toolserver

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
)

// request is one line of the stdio transport: a JSON-RPC-shaped envelope
// carrying the tool name and its params (SPEC_FULL.md §6 "Tool-surface
// glue").
type request struct {
	ID     json.RawMessage `json:"id"`
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"args"`
}

// response mirrors request's id back, with either result or error set.
type response struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ServeStdio reads newline-delimited request objects from in and writes a
// response object per line to out, until in is exhausted or a transport-
// level read/decode error occurs (malformed individual requests do not stop
// the loop; they are reported as an error response and the loop continues).
func ServeStdio(d *Dispatcher, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			if encErr := enc.Encode(response{Error: "malformed request: " + err.Error()}); encErr != nil {
				return encErr
			}
			continue
		}

		result, err := d.Invoke(req.Tool, req.Params)
		resp := response{ID: req.ID}
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Result = result
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
