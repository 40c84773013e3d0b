// Package domain holds the assessment logic: rule scanning, run
// orchestration, dynamic collection and pipeline execution.
package domain

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// Rule describes one pattern to match against decompiled sources.
type Rule struct {
	ID          string     `yaml:"id" validate:"required"`
	Description string     `yaml:"description"`
	Severity    m.Severity `yaml:"severity"`
	Category    m.Category `yaml:"category" validate:"required"`
	// FileGlob filters which files the rule applies to (match on base name,
	// e.g. "*.smali"). Empty means every file.
	FileGlob string `yaml:"file_glob,omitempty"`
	Pattern  string `yaml:"pattern" validate:"required"`

	compiled *regexp.Regexp
}

// AppliesTo reports whether the rule should run against the given file.
func (r *Rule) AppliesTo(path m.Path) bool {
	if r.FileGlob == "" {
		return true
	}

	ok, err := filepath.Match(r.FileGlob, filepath.Base(string(path)))

	return err == nil && ok
}

// Match returns the leftmost match of the rule's pattern in line, or "".
func (r *Rule) Match(line string) string {
	if r.compiled == nil {
		return ""
	}

	return r.compiled.FindString(line)
}

// RuleSet is a named collection of compiled rules.
type RuleSet struct {
	Name  string `yaml:"name" validate:"required"`
	Rules []Rule `yaml:"rules" validate:"required,min=1,dive"`
}

var ruleValidator = validator.New()

// Compile validates the set and compiles every rule's pattern. It must be
// called before the set is handed to a scanner.
func (rs *RuleSet) Compile() error {
	if err := ruleValidator.Struct(rs); err != nil {
		return fmt.Errorf("invalid rule set: %w", err)
	}

	for i := range rs.Rules {
		compiled, err := regexp.Compile(rs.Rules[i].Pattern)
		if err != nil {
			return fmt.Errorf("rule %s: bad pattern: %w", rs.Rules[i].ID, err)
		}

		rs.Rules[i].compiled = compiled
	}

	return nil
}

// ParseRuleSet loads and compiles a rule set from YAML.
func ParseRuleSet(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rule set: %w", err)
	}

	if err := rs.Compile(); err != nil {
		return RuleSet{}, err
	}

	return rs, nil
}

// DefaultRuleSet covers the weaknesses the runbook hunts for by hand:
// hardcoded credentials in decompiled sources, cleartext endpoints, pinning
// and trust-manager code (bypass targets), risky storage modes, and webview
// bridges. Compile is already called on the returned set.
func DefaultRuleSet() RuleSet {
	rs := RuleSet{
		Name: "droidprobe-default",
		Rules: []Rule{
			{
				ID:          "secret-generic-key",
				Description: "Hardcoded API key or secret assignment",
				Severity:    m.SeverityHigh,
				Category:    m.CategorySecret,
				Pattern:     `(?i)(api[_-]?key|secret|passwd|password|token)\s*[:=]\s*"[A-Za-z0-9+/_\-]{8,}"`,
			},
			{
				ID:          "secret-aws-access-key",
				Description: "AWS access key ID",
				Severity:    m.SeverityCritical,
				Category:    m.CategorySecret,
				Pattern:     `AKIA[0-9A-Z]{16}`,
			},
			{
				ID:          "secret-private-key-block",
				Description: "Embedded PEM private key",
				Severity:    m.SeverityCritical,
				Category:    m.CategorySecret,
				Pattern:     `-----BEGIN (RSA |EC |DSA )?PRIVATE KEY-----`,
			},
			{
				ID:          "net-cleartext-endpoint",
				Description: "Cleartext HTTP endpoint",
				Severity:    m.SeverityMedium,
				Category:    m.CategoryNetwork,
				Pattern:     `http://[A-Za-z0-9.\-]+(:[0-9]+)?(/[^\s"']*)?`,
			},
			{
				ID:          "net-cleartext-permitted",
				Description: "Manifest permits cleartext traffic",
				Severity:    m.SeverityMedium,
				Category:    m.CategoryNetwork,
				FileGlob:    "*.xml",
				Pattern:     `usesCleartextTraffic="true"|cleartextTrafficPermitted="true"`,
			},
			{
				ID:          "pin-trust-manager",
				Description: "Custom X509TrustManager implementation",
				Severity:    m.SeverityLow,
				Category:    m.CategoryPinning,
				Pattern:     `X509TrustManager|checkServerTrusted`,
			},
			{
				ID:          "pin-okhttp-pinner",
				Description: "OkHttp3 certificate pinning in use",
				Severity:    m.SeverityInfo,
				Category:    m.CategoryPinning,
				Pattern:     `okhttp3/CertificatePinner|CertificatePinner\.Builder`,
			},
			{
				ID:          "pin-hostname-verifier",
				Description: "Custom HostnameVerifier implementation",
				Severity:    m.SeverityLow,
				Category:    m.CategoryPinning,
				Pattern:     `HostnameVerifier;->verify|implements HostnameVerifier`,
			},
			{
				ID:          "component-debuggable",
				Description: "Application marked debuggable",
				Severity:    m.SeverityHigh,
				Category:    m.CategoryComponent,
				FileGlob:    "*.xml",
				Pattern:     `android:debuggable="true"`,
			},
			{
				ID:          "storage-world-readable",
				Description: "World readable/writeable file mode",
				Severity:    m.SeverityHigh,
				Category:    m.CategoryStorage,
				Pattern:     `MODE_WORLD_READABLE|MODE_WORLD_WRITEABLE`,
			},
			{
				ID:          "storage-external-write",
				Description: "Sensitive write to external storage",
				Severity:    m.SeverityLow,
				Category:    m.CategoryStorage,
				Pattern:     `getExternalStorageDirectory|getExternalFilesDir`,
			},
			{
				ID:          "webview-js-interface",
				Description: "JavaScript bridge exposed to webview content",
				Severity:    m.SeverityMedium,
				Category:    m.CategoryWebView,
				Pattern:     `addJavascriptInterface`,
			},
		},
	}

	// The built-in patterns are constants; a compile failure here is a
	// programming error.
	if err := rs.Compile(); err != nil {
		panic(err)
	}

	return rs
}
