package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeData,
				Message: "export has no files",
			},
			want: "export has no files",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeIO,
				Message: "create staging file",
				Cause:   errors.New("permission denied"),
			},
			want: "create staging file: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeTransport,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		code    ErrorCode
		message string
	}{
		{"auth", Auth("no token"), ErrCodeAuth, "no token"},
		{"authf", Authf("subject %s", "admin@example.com"), ErrCodeAuth, "subject admin@example.com"},
		{"transport", Transport("reset"), ErrCodeTransport, "reset"},
		{"transportf", Transportf("GET %s", "/x"), ErrCodeTransport, "GET /x"},
		{"data", Data("missing exports"), ErrCodeData, "missing exports"},
		{"dataf", Dataf("export %s", "e1"), ErrCodeData, "export e1"},
		{"decodef", Decodef("open %s", "a.zip"), ErrCodeDecode, "open a.zip"},
		{"iof", IOf("mkdir %s", "tmp"), ErrCodeIO, "mkdir tmp"},
		{"validation", Validation("bad"), ErrCodeValidation, "bad"},
		{"conflictf", Conflictf("lock %s", "m1"), ErrCodeConflict, "lock m1"},
		{"internalf", Internalf("state %d", 3), ErrCodeInternal, "state 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.message)
			}
		})
	}
}

func TestDataField(t *testing.T) {
	err := DataField("cloudStorageSink.files", "completed export has no files")
	if err.Code != ErrCodeData {
		t.Errorf("DataField().Code = %v, want %v", err.Code, ErrCodeData)
	}
	if err.Field != "cloudStorageSink.files" {
		t.Errorf("DataField().Field = %v, want %v", err.Field, "cloudStorageSink.files")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeIO, "wrapped error")

	if err.Code != ErrCodeIO {
		t.Errorf("Wrap().Code = %v, want %v", err.Code, ErrCodeIO)
	}
	if err.Message != "wrapped error" {
		t.Errorf("Wrap().Message = %v, want %v", err.Message, "wrapped error")
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Wrap().Cause = %v, want %v", err.Cause, cause)
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "wrapped error"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := Wrapf(nil, ErrCodeInternal, "wrapped %s", "error"); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestWrapf(t *testing.T) {
	cause := errors.New("eof")
	err := Wrapf(cause, ErrCodeDecode, "read member %s", "a.wav")
	if err.Message != "read member a.wav" {
		t.Errorf("Wrapf().Message = %q", err.Message)
	}
	if err.Error() != "read member a.wav: eof" {
		t.Errorf("Wrapf().Error() = %q", err.Error())
	}
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("stage fetch: %w", Transport("connection reset"))

	tests := []struct {
		name string
		fn   func(error) bool
		err  error
		want bool
	}{
		{"auth match", IsAuth, Auth("x"), true},
		{"auth mismatch", IsAuth, Transport("x"), false},
		{"transport wrapped", IsTransport, wrapped, true},
		{"data match", IsData, Data("x"), true},
		{"decode match", IsDecode, Decodef("x"), true},
		{"io match", IsIO, IOf("x"), true},
		{"io standard error", IsIO, errors.New("x"), false},
		{"validation match", IsValidation, Validation("x"), true},
		{"conflict match", IsConflict, Conflictf("x"), true},
		{"timeout match", IsTimeout, &AppError{Code: ErrCodeTimeout}, true},
		{"canceled match", IsCanceled, &AppError{Code: ErrCodeCanceled}, true},
		{"nil", IsTransport, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("predicate(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "app error",
			err:  Data("missing"),
			want: ErrCodeData,
		},
		{
			name: "outermost app error wins",
			err:  Wrap(Transport("inner"), ErrCodeAuth, "outer"),
			want: ErrCodeAuth,
		},
		{
			name: "standard error",
			err:  errors.New("standard error"),
			want: "",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetField(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation field error",
			err:  ValidationField("DRIVE_FOLDER_ID", "required"),
			want: "DRIVE_FOLDER_ID",
		},
		{
			name: "error without field",
			err:  Data("missing"),
			want: "",
		},
		{
			name: "standard error",
			err:  errors.New("standard error"),
			want: "",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetField(tt.err); got != tt.want {
				t.Errorf("GetField() = %v, want %v", got, tt.want)
			}
		})
	}
}
