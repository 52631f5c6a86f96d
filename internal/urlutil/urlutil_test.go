package urlutil

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{
			name:  "bare domain gets https and root path",
			input: "example.com",
			want:  "https://example.com/",
		},
		{
			name:  "surrounding whitespace is trimmed",
			input: "  https://example.com/path  ",
			want:  "https://example.com/path",
		},
		{
			name:  "http scheme is kept",
			input: "http://example.com/a?b=c",
			want:  "http://example.com/a?b=c",
		},
		{
			name:  "fragment and userinfo are dropped",
			input: "https://user:pw@example.com/a#frag",
			want:  "https://example.com/a",
		},
		{
			name:  "localhost is allowed",
			input: "localhost",
			want:  "https://localhost/",
		},
		{
			name:  "ip literal with port is allowed",
			input: "http://127.0.0.1:8000/x",
			want:  "http://127.0.0.1:8000/x",
		},
		{
			name:    "empty input",
			input:   "   ",
			wantErr: "url is required",
		},
		{
			name:    "unsupported scheme",
			input:   "ftp://example.com",
			wantErr: "url must start with http:// or https://",
		},
		{
			name:    "host without dot",
			input:   "https://intranet",
			wantErr: "invalid url host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.input)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Validate(%q) = %q, want error %q", tt.input, got, tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Fatalf("Validate(%q) error = %q, want %q", tt.input, err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("Validate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://example.com", "https://example.com/"},
		{"https://example.com/a#sec", "https://example.com/a"},
		{"https://example.com/a?x=1", "https://example.com/a?x=1"},
	}
	for _, tt := range tests {
		if got := NormalizeLink(tt.input); got != tt.want {
			t.Errorf("NormalizeLink(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"https://example.com/a", "https://example.com/b", true},
		{"https://example.com/a", "http://example.com/a", false},
		{"https://example.com/a", "https://example.com:8443/a", false},
		{"https://example.com/a", "https://other.com/a", false},
	}
	for _, tt := range tests {
		if got := SameOrigin(tt.a, tt.b); got != tt.want {
			t.Errorf("SameOrigin(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOrigin(t *testing.T) {
	if got := Origin("https://example.com:8443/deep/path?q=1"); got != "https://example.com:8443" {
		t.Fatalf("Origin = %q", got)
	}
}
