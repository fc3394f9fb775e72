// Package mcp implements the Model Context Protocol (MCP) server for classfind.
package mcp

import (
	"context"
	"errors"
	"fmt"

	cferrors "github.com/Aman-CERP/classfind/internal/errors"
)

// Custom MCP error codes for classfind.
const (
	// ErrCodeIndexUnavailable indicates an index could not be opened or is corrupt.
	ErrCodeIndexUnavailable = -32001

	// ErrCodeIndexLocked indicates an import holds the index lock.
	ErrCodeIndexLocked = -32002

	// ErrCodeTimeout indicates the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	if ce, ok := cferrors.As(err); ok {
		return mapClassfindError(ce)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{Code: ErrCodeInvalidParams, Message: "Invalid parameters."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapClassfindError(ce *cferrors.ClassfindError) *MCPError {
	message := ce.Message
	if ce.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ce.Message, ce.Suggestion)
	}

	switch ce.Category {
	case cferrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case cferrors.CategoryConcurrency:
		if ce.Code == cferrors.ErrCodeIndexLocked {
			return &MCPError{Code: ErrCodeIndexLocked, Message: message}
		}
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	case cferrors.CategoryIO:
		switch ce.Code {
		case cferrors.ErrCodeCorruptIndex, cferrors.ErrCodeIndexOpenFailed:
			return &MCPError{Code: ErrCodeIndexUnavailable, Message: message}
		default:
			return &MCPError{Code: ErrCodeInternalError, Message: message}
		}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
