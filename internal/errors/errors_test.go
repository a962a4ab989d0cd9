package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "connection error",
			code:    "E001",
			wantMsg: "Connection failed",
			wantCat: CategoryConnection,
		},
		{
			name:    "protocol error",
			code:    "E020",
			wantMsg: "Protocol violation",
			wantCat: CategoryProtocol,
		},
		{
			name:    "config error",
			code:    "E040",
			wantMsg: "No websock.yaml found",
			wantCat: CategoryConfig,
		},
		{
			name:    "cli error",
			code:    "E061",
			wantMsg: "Unsupported URL scheme",
			wantCat: CategoryCLI,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "feed.txt")
	if err.Message != `file "feed.txt" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestWebsockError_Error(t *testing.T) {
	err := New("E002")
	want := "E002: Handshake rejected"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	// Without code
	err2 := &WebsockError{Message: "plain message"}
	if err2.Error() != "plain message" {
		t.Errorf("Error() = %q, want plain message", err2.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := New("E001").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap did not return the cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E001") != nil {
		t.Error("FromError(nil) should be nil")
	}

	// A WebsockError passes through unchanged.
	orig := New("E020")
	if got := FromError(orig, "E001"); got != orig {
		t.Error("FromError rewrapped an existing WebsockError")
	}

	cause := stderrors.New("boom")
	got := FromError(cause, "E004")
	if got.Code != "E004" || got.Wrapped != cause {
		t.Errorf("FromError = %+v", got)
	}
}

func TestWithLocation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "websock.yaml")
	content := "url: ws://localhost\ntimeouts:\n  close: bogus\nlimits:\n  max: 1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E041").WithLocation(path, 3, 10)
	if err.Location == nil || err.Location.Line != 3 {
		t.Fatalf("Location = %+v", err.Location)
	}
	if len(err.Context) == 0 {
		t.Fatal("no context lines read")
	}
	found := false
	for _, line := range err.Context {
		if strings.Contains(line, "close: bogus") {
			found = true
		}
	}
	if !found {
		t.Errorf("context %q does not include the target line", err.Context)
	}
}

func TestWithLocationFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "websock.yaml")
	if err := os.WriteFile(path, []byte("a: 1\nb: [\n"), 0644); err != nil {
		t.Fatal(err)
	}

	yamlErr := fmt.Errorf("yaml: line 2: did not find expected node content")
	err := New("E041").WithLocationFromYAML(path, yamlErr)
	if err.Location == nil {
		t.Fatal("no location extracted")
	}
	if err.Location.Line != 2 || err.Location.File != path {
		t.Errorf("Location = %+v", err.Location)
	}

	// Errors without line info leave the location unset.
	err2 := New("E041").WithLocationFromYAML(path, stderrors.New("no position here"))
	if err2.Location != nil {
		t.Errorf("Location = %+v, want nil", err2.Location)
	}
}

func TestLocationString(t *testing.T) {
	var nilLoc *Location
	if nilLoc.String() != "" {
		t.Error("nil location should format as empty")
	}
	loc := &Location{File: "websock.yaml", Line: 7}
	if loc.String() != "websock.yaml:7" {
		t.Errorf("String() = %q", loc.String())
	}
	loc.Column = 3
	if loc.String() != "websock.yaml:7:3" {
		t.Errorf("String() = %q", loc.String())
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E002").
		WithDetail("The server answered with status 403.").
		WithSuggestion("Check the authentication header")

	out := err.Format()
	for _, want := range []string{
		"ERROR E002: Handshake rejected",
		"The server answered with status 403.",
		"Hint: Check the authentication header",
		"https://vango.dev/docs/websock/errors/E002",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatIncludesCause(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E001").Wrap(stderrors.New("dial tcp: connection refused"))
	if !strings.Contains(err.Format(), "dial tcp: connection refused") {
		t.Error("Format() does not include the wrapped cause")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E040")
	if got := err.FormatCompact(); got != "E040: No websock.yaml found" {
		t.Errorf("FormatCompact() = %q", got)
	}

	err.Location = &Location{File: "websock.yaml", Line: 1}
	if got := err.FormatCompact(); got != "websock.yaml:1: E040: No websock.yaml found" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E022").WithSuggestion("Raise limits.max_message_size")
	out := err.FormatJSON()
	for _, want := range []string{
		`"code":"E022"`,
		`"category":"protocol"`,
		`"message":"Message too large"`,
		`"suggestion":"Raise limits.max_message_size"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatJSON() missing %s:\n%s", want, out)
		}
	}
}

func TestRegistry(t *testing.T) {
	if _, ok := GetTemplate("E001"); !ok {
		t.Error("E001 not registered")
	}
	if _, ok := GetTemplate("E999"); ok {
		t.Error("E999 should not be registered")
	}

	Register("E900", ErrorTemplate{Category: CategoryCLI, Message: "Custom"})
	if err := New("E900"); err.Message != "Custom" {
		t.Errorf("registered template not used: %q", err.Message)
	}

	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Error("no codes registered")
	}
}
