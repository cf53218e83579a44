// Package sanitize produces a publishable copy of an export. Sensitive fields
// are removed by name, sensitive string patterns are replaced with placeholder
// tags, and files which are sensitive through and through are skipped. A
// report of what was done lands next to the sanitized files.
package sanitize

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spindash/spindash"
)

// redaction pairs a pattern with the placeholder tag that replaces it.
type redaction struct {
	name string
	re   *regexp.Regexp
	tag  string
}

var redactions = []redaction{
	{"ip_addresses", regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`), "[IP_ADDRESS]"},
	{"email_addresses", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL]"},
	{"device_ids", regexp.MustCompile(`\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`), "[DEVICE_ID]"},
	{"mac_addresses", regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}\b`), "[MAC_ADDRESS]"},
	{"spotify_uris", regexp.MustCompile(`spotify:(?:track|album|artist|playlist|user):[a-zA-Z0-9]+`), "[SPOTIFY_URI]"},
}

// removeFields are key fragments whose fields get dropped outright. Matching
// is a case-insensitive substring check, so ipAddrDecrypted falls to ip_addr
// and deviceIdDecrypted to deviceid.
var removeFields = []string{
	"ip_addr", "ipaddress", "ip_address",
	"email",
	"phone",
	"deviceid", "device_id",
	"macaddress", "mac_address",
	"creditcard", "credit_card", "cardnumber",
	"password", "token",
	"sessionid", "session_id",
	"userid", "user_id", "username",
	"address", "street", "city", "zip", "postalcode",
	"ssn", "socialsecurity", "passport",
	"location", "latitude", "longitude", "gps",
	"timezone",
	"useragent",
	"connection", "network", "wifi",
	"bluetooth",
}

// skipFiles are export files that are sensitive in their entirety; no
// sanitized copy of them is produced.
var skipFiles = map[string]bool{
	"identity.json":   true,
	"userdata.json":   true,
	"payments.json":   true,
	"follow.json":     true,
	"inferences.json": true,
}

// Report summarizes one sanitization run.
type Report struct {
	SanitizedAt     string   `json:"sanitized_at"`
	FilesProcessed  int      `json:"files_processed"`
	FilesSkipped    int      `json:"files_skipped"`
	FilesWritten    int      `json:"files_written"`
	TotalRedactions int      `json:"total_redactions"`
	FieldsRemoved   int      `json:"fields_removed"`
	Patterns        []string `json:"redaction_patterns"`
	RemovedFields   []string `json:"removed_fields"`
}

// Sanitizer redacts sensitive data from decoded JSON values, keeping running
// counts as it goes. The zero value is ready to use.
type Sanitizer struct {
	Redactions    int
	FieldsRemoved int
}

// String replaces every sensitive pattern occurrence in text with its tag.
func (s *Sanitizer) String(text string) string {
	for _, r := range redactions {
		matches := r.re.FindAllStringIndex(text, -1)
		if matches == nil {
			continue
		}
		s.Redactions += len(matches)
		text = r.re.ReplaceAllString(text, r.tag)
	}
	return text
}

// removeField reports whether a key names a field to drop.
func removeField(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range removeFields {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Value recursively sanitizes a decoded JSON value. Objects lose their
// sensitive fields, strings get their sensitive patterns redacted, and
// everything else passes through unchanged.
func (s *Sanitizer) Value(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for key, inner := range val {
			if removeField(key) {
				s.FieldsRemoved++
				continue
			}
			out[key] = s.Value(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = s.Value(inner)
		}
		return out
	case string:
		return s.String(val)
	default:
		return v
	}
}

// SkipFile reports whether a file is too sensitive to sanitize at all.
// Technical log exports fall in that bucket wholesale.
func SkipFile(path string) bool {
	lower := strings.ToLower(path)
	if strings.Contains(lower, "technical") || strings.Contains(lower, "log") {
		return true
	}
	return skipFiles[strings.ToLower(filepath.Base(path))]
}

// Main holds the config for the sanitize command.
type Main struct {
	Data    string `help:"Directory containing export files to sanitize."`
	Output  string `help:"Directory to write sanitized copies into."`
	Verbose bool   `help:"Enable verbose logging."`
}

// NewMain gets a Main with default values.
func NewMain() *Main {
	return &Main{
		Data:   ".",
		Output: "sanitized_data",
	}
}

// Run sanitizes every JSON file under the data directory into the output
// directory, preserving relative paths, then writes the report.
func (m *Main) Run() error {
	log := spindash.Logger(spindash.NewStdLogger(os.Stderr))
	if m.Verbose {
		log = spindash.NewVerboseLogger(os.Stderr)
	}

	if err := os.MkdirAll(m.Output, 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	san := &Sanitizer{}
	report := Report{}

	err := filepath.Walk(m.Data, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".json") {
			return nil
		}
		rel, err := filepath.Rel(m.Data, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		if SkipFile(rel) {
			log.Debugf("skipping sensitive file %s", path)
			report.FilesSkipped++
			return nil
		}

		buf, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skipping unreadable file %s: %v", path, err)
			report.FilesSkipped++
			return nil
		}
		var data interface{}
		if err := json.Unmarshal(buf, &data); err != nil {
			log.Printf("skipping malformed file %s: %v", path, err)
			report.FilesSkipped++
			return nil
		}
		report.FilesProcessed++

		clean := san.Value(data)
		out, err := json.MarshalIndent(clean, "", "  ")
		if err != nil {
			return errors.Wrapf(err, "encoding sanitized %s", path)
		}

		dest := filepath.Join(m.Output, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.Wrapf(err, "creating directory for %s", dest)
		}
		if err := os.WriteFile(dest, append(out, '\n'), 0644); err != nil {
			return errors.Wrapf(err, "writing %s", dest)
		}
		report.FilesWritten++
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "walking data directory")
	}

	report.SanitizedAt = time.Now().UTC().Format(time.RFC3339)
	report.TotalRedactions = san.Redactions
	report.FieldsRemoved = san.FieldsRemoved
	for _, r := range redactions {
		report.Patterns = append(report.Patterns, r.name)
	}
	report.RemovedFields = removeFields

	buf, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	dest := filepath.Join(m.Output, "sanitization_report.json")
	if err := os.WriteFile(dest, append(buf, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", dest)
	}

	log.Printf("sanitized %d of %d files into %s (%d redactions, %d fields removed)",
		report.FilesWritten, report.FilesProcessed+report.FilesSkipped, m.Output,
		report.TotalRedactions, report.FieldsRemoved)
	return nil
}
