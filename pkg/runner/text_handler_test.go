package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Output(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf,
		WithTextHandlerRenderer(func(s string) (string, error) {
			return "Rendered: " + s, nil
		}),
	)

	require.NoError(t, handler.Output(context.Background(), Reply{Response: "Hello World"}))
	assert.Equal(t, "Rendered: Hello World\n", outBuf.String())
}

func TestTextHandler_Input(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("my user input\nlast line"), outBuf)

	val, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my user input", val)

	val, err = handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "last line", val, "a final line without newline is still delivered")

	_, err = handler.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "> > > ", outBuf.String())
}

func TestTextHandler_InputCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	handler := NewTextHandler(pr, io.Discard, WithPrompt(""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
