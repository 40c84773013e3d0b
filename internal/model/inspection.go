package model

import "strings"

// Permission is an Android permission requested by the package.
type Permission struct {
	Name string
}

// Dangerous reports whether the permission touches data the runbook treats as
// sensitive (camera, location, contacts, SMS, storage, microphone).
func (p Permission) Dangerous() bool {
	for _, marker := range dangerousPermissionMarkers {
		if strings.Contains(p.Name, marker) {
			return true
		}
	}

	return false
}

var dangerousPermissionMarkers = []string{
	"CAMERA",
	"LOCATION",
	"CONTACTS",
	"SMS",
	"STORAGE",
	"MICROPHONE",
	"RECORD_AUDIO",
	"READ_CALL_LOG",
}

// ComponentKind distinguishes the four Android component types.
type ComponentKind string

// Component kinds as they appear in the manifest.
const (
	ComponentActivity ComponentKind = "activity"
	ComponentService  ComponentKind = "service"
	ComponentReceiver ComponentKind = "receiver"
	ComponentProvider ComponentKind = "provider"
)

// Component is a manifest-declared application component.
type Component struct {
	Kind     ComponentKind
	Name     string
	Exported bool
}

// Inspection is the static profile of an APK assembled from aapt output.
type Inspection struct {
	PackageName string
	VersionName string
	VersionCode string
	MinSDK      string
	TargetSDK   string
	Debuggable  bool
	Permissions []Permission
	Components  []Component
}

// ExportedComponents returns the components reachable from other apps.
func (i Inspection) ExportedComponents() []Component {
	var exported []Component

	for _, c := range i.Components {
		if c.Exported {
			exported = append(exported, c)
		}
	}

	return exported
}

// DangerousPermissions returns the requested permissions flagged as dangerous.
func (i Inspection) DangerousPermissions() []Permission {
	var dangerous []Permission

	for _, p := range i.Permissions {
		if p.Dangerous() {
			dangerous = append(dangerous, p)
		}
	}

	return dangerous
}
