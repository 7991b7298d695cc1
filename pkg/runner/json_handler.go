package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
)

// JSONHandler implements the IOHandler interface for JSON-Lines communication.
//
// Each input line is either {"message": "..."}, a JSON string or raw text.
// Each reply is written as one Reply object.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

type jsonInput struct {
	Message string `json:"message"`
}

type jsonSystem struct {
	System string `json:"system"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, reply Reply) error {
	return h.Encoder.Encode(reply)
}

// Input blocks on the reader; cancellation is observed between lines.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var obj jsonInput
	if strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &obj) == nil {
		return obj.Message, nil
	}
	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}
	return text, nil
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(jsonSystem{System: msg})
}
