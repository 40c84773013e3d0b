package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

const badgingFixture = `package: name='com.example.vault' versionCode='42' versionName='1.4.2'
sdkVersion:'24'
targetSdkVersion:'34'
application-label:'Vault'
application-debuggable
uses-permission: name='android.permission.INTERNET'
uses-permission: name='android.permission.CAMERA'
`

const permissionsFixture = `package: com.example.vault
uses-permission: name='android.permission.INTERNET'
uses-permission: name='android.permission.ACCESS_FINE_LOCATION'
`

const xmltreeFixture = `N: android=http://schemas.android.com/apk/res/android
  E: manifest (line=2)
    E: application (line=8)
      E: activity (line=12)
        A: android:name(0x01010003)="com.example.vault.MainActivity" (Raw: "com.example.vault.MainActivity")
      E: activity (line=20)
        A: android:exported(0x01010010)=(type 0x12)0xffffffff
        A: android:name(0x01010003)="com.example.vault.ShareActivity" (Raw: "com.example.vault.ShareActivity")
      E: service (line=30)
        A: android:exported(0x01010010)=(type 0x12)0x0
        A: android:name(0x01010003)="com.example.vault.SyncService" (Raw: "com.example.vault.SyncService")
      E: provider (line=40)
        A: android:exported(0x01010010)=(type 0x12)0xffffffff
        A: android:name(0x01010003)="com.example.vault.FileProvider" (Raw: "com.example.vault.FileProvider")
`

func TestParseBadging(t *testing.T) {
	inspection := parseBadging(badgingFixture)

	assert.Equal(t, "com.example.vault", inspection.PackageName)
	assert.Equal(t, "42", inspection.VersionCode)
	assert.Equal(t, "1.4.2", inspection.VersionName)
	assert.Equal(t, "24", inspection.MinSDK)
	assert.Equal(t, "34", inspection.TargetSDK)
	assert.True(t, inspection.Debuggable)
}

func TestParsePermissions(t *testing.T) {
	permissions := parsePermissions(permissionsFixture)

	require.Len(t, permissions, 2)
	assert.Equal(t, "android.permission.INTERNET", permissions[0].Name)
	assert.Equal(t, "android.permission.ACCESS_FINE_LOCATION", permissions[1].Name)
	assert.False(t, permissions[0].Dangerous())
	assert.True(t, permissions[1].Dangerous())
}

func TestParseManifestTree(t *testing.T) {
	components := parseManifestTree(xmltreeFixture)

	require.Len(t, components, 4)

	assert.Equal(t, m.Component{Kind: m.ComponentActivity, Name: "com.example.vault.MainActivity"}, components[0])
	assert.Equal(t, m.Component{Kind: m.ComponentActivity, Name: "com.example.vault.ShareActivity", Exported: true}, components[1])
	assert.Equal(t, m.Component{Kind: m.ComponentService, Name: "com.example.vault.SyncService"}, components[2])
	assert.Equal(t, m.Component{Kind: m.ComponentProvider, Name: "com.example.vault.FileProvider", Exported: true}, components[3])
}

func TestAaptAdapter_Inspect(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["dump badging"] = badgingFixture
	runner.outputs["dump permissions"] = permissionsFixture
	runner.outputs["dump xmltree"] = xmltreeFixture

	adapter := NewAaptAdapter(runner)

	inspection, err := adapter.Inspect(context.Background(), "app.apk")
	require.NoError(t, err)

	assert.Equal(t, "com.example.vault", inspection.PackageName)
	// Badging and permissions dumps overlap on INTERNET; it must appear once.
	assert.Len(t, inspection.Permissions, 3)
	assert.Len(t, inspection.Components, 4)
	assert.Len(t, inspection.ExportedComponents(), 2)
}

func TestAaptAdapter_FallsBackToAapt2(t *testing.T) {
	runner := newFakeRunner()
	runner.errors["aapt dump badging"] = errors.New("aapt: not found")
	runner.outputs["aapt2 dump badging"] = badgingFixture

	adapter := NewAaptAdapter(runner)

	inspection, err := adapter.Inspect(context.Background(), "app.apk")
	require.NoError(t, err)
	assert.Equal(t, "com.example.vault", inspection.PackageName)
}

func TestAaptAdapter_BadgingFailureIsFatal(t *testing.T) {
	runner := newFakeRunner()
	runner.errors["dump badging"] = errors.New("no such file")

	adapter := NewAaptAdapter(runner)

	_, err := adapter.Inspect(context.Background(), "missing.apk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "badging")
}
