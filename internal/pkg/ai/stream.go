package ai

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// dataPrefix marks the lines of an event stream that carry a payload.
const dataPrefix = "data: "

// maxStreamLineBytes is the longest event line the stream reader keeps.
// Longer lines are skipped like any other undecodable line.
const maxStreamLineBytes = 1024 * 1024

// streamChunk is the payload of one data line.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamReducer folds event stream lines into the text they carry. Lines
// without the data prefix and data lines whose payload does not decode are
// skipped; the first choice's delta of each remaining line is appended in
// order with no separator.
type StreamReducer struct {
	text strings.Builder
}

// Feed consumes one line of the stream.
func (r *StreamReducer) Feed(line string) {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return
	}
	if len(chunk.Choices) == 0 {
		return
	}
	r.text.WriteString(chunk.Choices[0].Delta.Content)
}

// Text returns the text reassembled so far.
func (r *StreamReducer) Text() string {
	return r.text.String()
}

// ReduceDeltas reassembles the text carried by lines.
func ReduceDeltas(lines []string) string {
	var r StreamReducer
	for _, line := range lines {
		r.Feed(line)
	}
	return r.Text()
}

// ReduceStream reads body until EOF and reassembles the text it carries.
// Only a failing read is an error.
func ReduceStream(body io.Reader) (string, error) {
	var r StreamReducer

	reader := bufio.NewReaderSize(body, 64*1024)
	var line []byte
	oversized := false
	for {
		fragment, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		if !oversized {
			if len(line)+len(fragment) > maxStreamLineBytes {
				oversized = true
				line = line[:0]
			} else {
				line = append(line, fragment...)
			}
		}
		if isPrefix {
			continue
		}

		if !oversized {
			r.Feed(string(line))
		}
		line = line[:0]
		oversized = false
	}

	return r.Text(), nil
}
