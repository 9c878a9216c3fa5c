package error

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var errTest = errors.New("test error")

func TestSpecError_Error(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	src := `name: test
productions:
  - lhs: s
    rhs: [x]
`
	if err := os.WriteFile(path, []byte(src), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		caption string
		err     *SpecError
		msg     string
	}{
		{
			caption: "only a cause",
			err: &SpecError{
				Cause: errTest,
			},
			msg: "error: test error",
		},
		{
			caption: "a source name, a row, and a detail",
			err: &SpecError{
				Cause:      errTest,
				Detail:     "x",
				SourceName: "test.yaml",
				Row:        3,
			},
			msg: "test.yaml: 3: error: test error: x",
		},
		{
			caption: "a source line",
			err: &SpecError{
				Cause:      errTest,
				FilePath:   path,
				SourceName: "test.yaml",
				Row:        4,
			},
			msg: "test.yaml: 4: error: test error\n        rhs: [x]",
		},
		{
			caption: "a row beyond the end of the file",
			err: &SpecError{
				Cause:    errTest,
				FilePath: path,
				Row:      100,
			},
			msg: "100: error: test error",
		},
		{
			caption: "a missing file",
			err: &SpecError{
				Cause:    errTest,
				FilePath: filepath.Join(dir, "missing.yaml"),
				Row:      1,
			},
			msg: "1: error: test error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			if msg := tt.err.Error(); msg != tt.msg {
				t.Fatalf("unexpected message; want: %q, got: %q", tt.msg, msg)
			}
		})
	}
}

func TestSpecErrors(t *testing.T) {
	errOther := errors.New("other error")
	errs := SpecErrors{
		{Cause: errTest, Row: 5},
		{Cause: errOther, Row: 2},
		{Cause: errTest, Row: 3},
	}

	lines := strings.Split(errs.Error(), "\n")
	want := []string{
		"2: error: other error",
		"3: error: test error",
		"5: error: test error",
	}
	if len(lines) != len(want) {
		t.Fatalf("unexpected lines; want: %v, got: %v", want, lines)
	}
	for i, l := range lines {
		if l != want[i] {
			t.Errorf("unexpected line; want: %q, got: %q", want[i], l)
		}
	}
	if errs[0].Row != 5 {
		t.Errorf("Error must not reorder the receiver")
	}

	var err error = errs
	if !errors.Is(err, errOther) {
		t.Errorf("errors.Is must find a cause of any element")
	}
	var specErr *SpecError
	if !errors.As(err, &specErr) || specErr.Cause != errTest {
		t.Errorf("errors.As must find the first element: %v", specErr)
	}

	if SpecErrors(nil).Error() != "" {
		t.Errorf("an empty list must produce an empty message")
	}
}
