package middleware

import "testing"

func TestValidateVideoID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr bool
	}{
		{"valid", "dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"valid with dash", "abc-def_123", "abc-def_123", false},
		{"trims whitespace", "  abc  ", "abc", false},
		{"empty", "", "", true},
		{"too long", "12345678901234567", "", true},
		{"exactly 16", "1234567890123456", "1234567890123456", false},
		{"invalid chars", "abc def", "", true},
		{"sql injection", "a'; DROP--", "", true},
		{"unicode", "abcédef", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateVideoID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.wantID {
				t.Errorf("got %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestValidateChannelID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"canonical", "UCR9Gcq0CMm6YgTzsDxAxjOQ", "UCR9Gcq0CMm6YgTzsDxAxjOQ", false},
		{"legacy username", "xisumavoid", "xisumavoid", false},
		{"empty", "", "", true},
		{"too long 33", "123456789012345678901234567890123", "", true},
		{"exactly 32", "12345678901234567890123456789012", "12345678901234567890123456789012", false},
		{"invalid chars", "UC test!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateChannelID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateMaxResults(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"", 50, false},
		{"0", 0, false},
		{"200", 200, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"5001", 0, true},
	}
	for _, tt := range tests {
		got, errMsg := ValidateMaxResults(tt.input, 50)
		if (errMsg != "") != tt.wantErr {
			t.Errorf("ValidateMaxResults(%q) err = %q, wantErr %v", tt.input, errMsg, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ValidateMaxResults(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestValidateBool(t *testing.T) {
	if b, msg := ValidateBool("backfill", ""); b || msg != "" {
		t.Errorf("empty = (%v, %q), want (false, \"\")", b, msg)
	}
	if b, msg := ValidateBool("backfill", "true"); !b || msg != "" {
		t.Errorf("true = (%v, %q)", b, msg)
	}
	if _, msg := ValidateBool("backfill", "maybe"); msg == "" {
		t.Error("expected error for non-boolean")
	}
}

func TestSanitizePath(t *testing.T) {
	tests := map[string]string{
		"/api/sync/channels/UCR9Gcq0CMm6YgTzsDxAxjOQ": "/api/sync/channels/:channelId",
		"/api/sync/videos/dQw4w9WgXcQ":                "/api/sync/videos/:videoId",
		"/api/sync/videos":                            "/api/sync/videos",
		"/health/ready":                               "/health/ready",
	}
	for in, want := range tests {
		if got := sanitizePath(in); got != want {
			t.Errorf("sanitizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
