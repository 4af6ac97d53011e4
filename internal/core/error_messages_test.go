package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "parse error maps to invalid csv",
			err:         fmt.Errorf("parse in.csv: %w", ErrParse),
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "empty upload",
			err:         ErrEmptyFile,
			wantCode:    "FILE005",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "io error wrapping not-exist",
			err:         fmt.Errorf("%w: read in.csv: %w", ErrIO, os.ErrNotExist),
			wantCode:    "IO001",
			wantMessage: "The file could not be read or written",
		},
		{
			name:        "all conversion slots busy",
			err:         ErrBusy,
			wantCode:    "UPL003",
			wantMessage: "The server is busy converting other files",
		},
		{
			name:        "deadline exceeded",
			err:         fmt.Errorf("convert: %w", context.DeadlineExceeded),
			wantCode:    "UPL005",
			wantMessage: "Request timed out",
		},
		{
			name:        "cancelled",
			err:         context.Canceled,
			wantCode:    "UPL004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "max bytes reader error",
			err:         &http.MaxBytesError{Limit: 10},
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "missing form file",
			err:         errors.New("no file provided: http: no such file"),
			wantCode:    "FILE004",
			wantMessage: "No file was selected",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("FILE TOO LARGE"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapError_ParseBeatsIO(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrIO, ErrParse)
	if got := MapError(err).Code; got != "FILE002" {
		t.Errorf("MapError() code = %q, want FILE002", got)
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrEmptyFile)

	expected := "The uploaded file is empty (Code: FILE005). Please upload a file with question/answer rows"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrParse,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("%w: read x.csv: permission denied", ErrIO)
		userErr := NewUserError(techErr)

		if userErr.Error() != "The file could not be read or written" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, ErrIO) {
			t.Error("Unwrap() should return original error")
		}
	})
}
