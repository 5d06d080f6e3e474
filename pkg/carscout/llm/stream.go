package llm

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// StreamParser reads content deltas from a server-sent events body
type StreamParser struct {
	scanner *bufio.Scanner
}

// StreamChunk is one content delta.
type StreamChunk struct {
	Content string
	Done    bool
}

// NewStreamParser creates a parser over r.
func NewStreamParser(r io.Reader) *StreamParser {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &StreamParser{scanner: scanner}
}

// Next returns the next chunk. The end of the body counts as Done.
func (p *StreamParser) Next() (*StreamChunk, error) {
	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return &StreamChunk{Done: true}, nil
		}

		var resp chatResponse
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			// keep-alives and vendor extensions are not JSON
			continue
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		return &StreamChunk{
			Content: choice.Delta.Content,
			Done:    choice.FinishReason != "",
		}, nil
	}
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return &StreamChunk{Done: true}, nil
}
