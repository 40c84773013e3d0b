package model

// Severity ranks how urgent a finding is.
type Severity int

// Severity levels, ordered from least to most urgent.
const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityInfo:     "info",
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}

	return "unknown"
}

// ParseSeverity maps a config string to a Severity, defaulting to info.
func ParseSeverity(value string) Severity {
	for sev, name := range severityNames {
		if name == value {
			return sev
		}
	}

	return SeverityInfo
}

// MarshalYAML encodes a Severity as its name.
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML decodes a Severity from its name.
func (s *Severity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}

	*s = ParseSeverity(name)

	return nil
}

// Category groups findings by the class of weakness they indicate.
type Category string

// Finding categories.
const (
	CategorySecret    Category = "secret"
	CategoryNetwork   Category = "network"
	CategoryPinning   Category = "pinning"
	CategoryComponent Category = "component"
	CategoryStorage   Category = "storage"
	CategoryWebView   Category = "webview"
)

// Finding is a single match produced by scanning a decompiled source tree.
type Finding struct {
	ID       string   `yaml:"id"`
	RuleID   string   `yaml:"rule_id"`
	Severity Severity `yaml:"severity"`
	Category Category `yaml:"category"`
	File     Path     `yaml:"file"`
	Line     int      `yaml:"line"`
	Excerpt  string   `yaml:"excerpt"`
}
