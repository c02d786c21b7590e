package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
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
			name:        "asset not found maps correctly",
			err:         fmt.Errorf("%w: %s", ErrAssetNotFound, "42"),
			wantCode:    "AST001",
			wantMessage: "Asset not found",
		},
		{
			name:        "missing dump file maps correctly",
			err:         fmt.Errorf("load snapshot: open dump: %w", &fs.PathError{Op: "open", Path: "/x.sql", Err: fs.ErrNotExist}),
			wantCode:    "SRC001",
			wantMessage: "Data file not found",
		},
		{
			name:        "os level missing file maps correctly",
			err:         errors.New("open /data/apoyar_db.sql: no such file or directory"),
			wantCode:    "SRC001",
			wantMessage: "Data file not found",
		},
		{
			name:        "permission denied maps correctly",
			err:         errors.New("open /data/data.json: permission denied"),
			wantCode:    "SRC002",
			wantMessage: "Data file could not be read",
		},
		{
			name:        "corrupt snapshot maps correctly",
			err:         errors.New("read snapshot: invalid snapshot: unexpected end of JSON input"),
			wantCode:    "SRC003",
			wantMessage: "Snapshot data is corrupt",
		},
		{
			name:        "no source maps correctly",
			err:         errors.New("no snapshot source configured"),
			wantCode:    "SRC004",
			wantMessage: "No data source is configured",
		},
		{
			name:        "empty snapshot table maps correctly",
			err:         errors.New("latest snapshot: no rows in result set"),
			wantCode:    "SRC005",
			wantMessage: "No snapshot has been exported to the database yet",
		},
		{
			name:        "cancelled context maps correctly",
			err:         fmt.Errorf("load dump: %w", context.Canceled),
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "deadline maps before generic timeout",
			err:         fmt.Errorf("load dump: %w", context.DeadlineExceeded),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("ASSET NOT FOUND: 7"),
			wantCode:    "AST001",
			wantMessage: "Asset not found",
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

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrAssetNotFound)

	expected := "Asset not found (Code: AST001). Check the asset id and return to the asset list"
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
			err:  ErrAssetNotFound,
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
