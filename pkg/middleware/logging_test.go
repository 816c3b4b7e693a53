package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// loggingTestRequest wraps ServerRequest for testing.
type loggingTestRequest struct {
	mcp.ServerRequest[*mcp.CallToolParamsRaw]
}

func newLoggingTestRequest(toolName string) *loggingTestRequest {
	return &loggingTestRequest{
		ServerRequest: mcp.ServerRequest[*mcp.CallToolParamsRaw]{
			Params: &mcp.CallToolParamsRaw{
				Name: toolName,
			},
		},
	}
}

func newCaptureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestToolLoggingMiddleware_LogsToolCall(t *testing.T) {
	logger, buf := newCaptureLogger()

	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.CallToolResult{}, nil
	}
	handler := ToolLoggingMiddleware(logger)(next)

	_, err := handler(context.Background(), "tools/call", newLoggingTestRequest("query"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("tool call complete")) {
		t.Errorf("expected completion log, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("tool=query")) {
		t.Errorf("expected tool name in log, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("request_id=")) {
		t.Errorf("expected a request id in log, got %q", out)
	}
}

func TestToolLoggingMiddleware_PassesThroughOtherMethods(t *testing.T) {
	logger, buf := newCaptureLogger()

	called := false
	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		called = true
		return nil, nil
	}
	handler := ToolLoggingMiddleware(logger)(next)

	_, err := handler(context.Background(), "tools/list", newLoggingTestRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("next was not called for tools/list")
	}
	if buf.Len() != 0 {
		t.Errorf("tools/list should not be logged, got %q", buf.String())
	}
}

func TestToolLoggingMiddleware_LogsHandlerError(t *testing.T) {
	logger, buf := newCaptureLogger()

	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return nil, errors.New("backend exploded")
	}
	handler := ToolLoggingMiddleware(logger)(next)

	_, err := handler(context.Background(), "tools/call", newLoggingTestRequest("query"))
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
	if !bytes.Contains(buf.Bytes(), []byte("tool call failed")) {
		t.Errorf("expected failure log, got %q", buf.String())
	}
}

func TestToolLoggingMiddleware_LogsErrorResult(t *testing.T) {
	logger, buf := newCaptureLogger()

	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.CallToolResult{IsError: true}, nil
	}
	handler := ToolLoggingMiddleware(logger)(next)

	if _, err := handler(context.Background(), "tools/call", newLoggingTestRequest("query")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("tool call returned error result")) {
		t.Errorf("expected error-result log, got %q", buf.String())
	}
}
