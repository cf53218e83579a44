package sanitize_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spindash/spindash/sanitize"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		exp  string
	}{
		{"ip", "logged in from 192.168.1.17 yesterday", "logged in from [IP_ADDRESS] yesterday"},
		{"email", "contact me@example.com", "contact [EMAIL]"},
		{"device id", "device 0a1b2c3d-0123-4567-89ab-0123456789ab ok", "device [DEVICE_ID] ok"},
		{"mac", "iface DE:AD:BE:EF:00:01 up", "iface [MAC_ADDRESS] up"},
		{"uri", "played spotify:track:4uLU6hMCjMI75M1A2tKUQC twice", "played [SPOTIFY_URI] twice"},
		{"clean", "Purple Rain - Prince", "Purple Rain - Prince"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			san := &sanitize.Sanitizer{}
			if got := san.String(test.in); got != test.exp {
				t.Errorf("expected %q, got %q", test.exp, got)
			}
		})
	}
}

func TestStringCountsRedactions(t *testing.T) {
	san := &sanitize.Sanitizer{}
	san.String("10.0.0.1 and 10.0.0.2 wrote to a@b.co")
	if san.Redactions != 3 {
		t.Fatalf("expected 3 redactions, got %d", san.Redactions)
	}
}

func TestValue(t *testing.T) {
	san := &sanitize.Sanitizer{}
	in := map[string]interface{}{
		"trackName":  "Song",
		"artistName": "Artist",
		"ip_addr":    "10.0.0.1",
		"email":      "a@b.co",
		"nested": []interface{}{
			map[string]interface{}{
				"deviceId": "abc",
				"note":     "from 10.0.0.1",
			},
		},
	}

	out, ok := san.Value(in).(map[string]interface{})
	if !ok {
		t.Fatal("expected a map back")
	}
	if _, present := out["ip_addr"]; present {
		t.Error("ip_addr should have been removed")
	}
	if _, present := out["email"]; present {
		t.Error("email should have been removed")
	}
	if out["trackName"] != "Song" || out["artistName"] != "Artist" {
		t.Errorf("harmless fields should survive: %v", out)
	}

	nested := out["nested"].([]interface{})[0].(map[string]interface{})
	if _, present := nested["deviceId"]; present {
		t.Error("nested deviceId should have been removed")
	}
	if nested["note"] != "from [IP_ADDRESS]" {
		t.Errorf("nested string should be redacted, got %q", nested["note"])
	}

	if san.FieldsRemoved != 3 {
		t.Errorf("expected 3 fields removed, got %d", san.FieldsRemoved)
	}
	if san.Redactions != 1 {
		t.Errorf("expected 1 redaction, got %d", san.Redactions)
	}
}

func TestSkipFile(t *testing.T) {
	tests := []struct {
		path string
		skip bool
	}{
		{"Identity.json", true},
		{"Payments.json", true},
		{"Technical Log Information/streams.json", true},
		{"connectivity_log_2021.json", true},
		{"StreamingHistory_music_0.json", false},
		{"Playlist1.json", false},
	}
	for _, test := range tests {
		if got := sanitize.SkipFile(test.path); got != test.skip {
			t.Errorf("SkipFile(%q): expected %v, got %v", test.path, test.skip, got)
		}
	}
}

func TestMainRun(t *testing.T) {
	data := t.TempDir()
	out := t.TempDir()

	history := filepath.Join(data, "Account Data")
	if err := os.MkdirAll(history, 0755); err != nil {
		t.Fatal(err)
	}
	err := os.WriteFile(filepath.Join(history, "StreamingHistory_music_0.json"), []byte(`[
		{"trackName": "Song", "artistName": "Artist", "endTime": "2021-01-01 10:00", "msPlayed": 200000, "ip_addr": "10.0.0.1"}
	]`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(history, "Identity.json"), []byte(`{"email": "a@b.co"}`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	m := sanitize.NewMain()
	m.Data = data
	m.Output = out
	if err := m.Run(); err != nil {
		t.Fatalf("running sanitize: %v", err)
	}

	// Identity.json is skipped outright.
	if _, err := os.Stat(filepath.Join(out, "Account Data", "Identity.json")); !os.IsNotExist(err) {
		t.Error("Identity.json should not have a sanitized copy")
	}

	buf, err := os.ReadFile(filepath.Join(out, "Account Data", "StreamingHistory_music_0.json"))
	if err != nil {
		t.Fatalf("reading sanitized copy: %v", err)
	}
	if strings.Contains(string(buf), "10.0.0.1") || strings.Contains(string(buf), "ip_addr") {
		t.Errorf("sanitized copy still holds sensitive data: %s", buf)
	}
	if !strings.Contains(string(buf), "Song") {
		t.Errorf("sanitized copy lost harmless data: %s", buf)
	}

	buf, err = os.ReadFile(filepath.Join(out, "sanitization_report.json"))
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var report sanitize.Report
	if err := json.Unmarshal(buf, &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.FilesProcessed != 1 || report.FilesSkipped != 1 || report.FilesWritten != 1 {
		t.Errorf("unexpected file counts: %+v", report)
	}
	if report.FieldsRemoved != 1 {
		t.Errorf("expected 1 field removed, got %d", report.FieldsRemoved)
	}
}
