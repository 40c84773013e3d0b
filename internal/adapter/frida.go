package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	m "droidprobe.dev/pkg/droidprobe/internal/model"
)

// FridaAdapter abstracts the dynamic instrumentation toolkit. The harness
// generates a hook script, optionally deploys frida-server over adb, and runs
// the frida CLI against the target process; it never embeds a hooking engine.
type FridaAdapter interface {
	// WriteUnpinningScript writes the universal SSL-unpinning hook script
	// into dir and returns its path.
	WriteUnpinningScript(dir m.Path) (m.Path, error)

	// Spawn launches the target package with the script injected
	// (frida -U -f <package> -l <script>).
	Spawn(ctx context.Context, packageName string, script m.Path) (string, error)

	// Attach injects the script into a running process by name
	// (frida -U -n <process> -l <script>).
	Attach(ctx context.Context, process string, script m.Path) (string, error)

	// AttachPID injects the script into a running process by PID
	// (frida -U -p <pid> -l <script>).
	AttachPID(ctx context.Context, pid int, script m.Path) (string, error)

	// SetupServer pushes a frida-server binary to the device and starts it
	// in the background.
	SetupServer(ctx context.Context, serverBinary m.Path) error
}

// LocalFridaAdapter drives the frida CLI.
type LocalFridaAdapter struct {
	runner ToolRunner
	adb    AdbAdapter
}

// NewLocalFridaAdapter constructs a LocalFridaAdapter.
func NewLocalFridaAdapter(runner ToolRunner, adb AdbAdapter) *LocalFridaAdapter {
	return &LocalFridaAdapter{runner: runner, adb: adb}
}

const fridaServerRemotePath = "/data/local/tmp/frida-server"

// unpinningScript hooks the certificate checks the runbook bypasses by hand:
// a permissive TrustManager swapped into SSLContext.init, OkHttp3's
// CertificatePinner.check neutralised, and HostnameVerifier.verify forced to
// true. Kept to APIs present on stock Android plus OkHttp3.
const unpinningScript = `Java.perform(function () {
    var X509TrustManager = Java.use('javax.net.ssl.X509TrustManager');
    var SSLContext = Java.use('javax.net.ssl.SSLContext');

    var TrustManager = Java.registerClass({
        name: 'dev.droidprobe.PermissiveTrustManager',
        implements: [X509TrustManager],
        methods: {
            checkClientTrusted: function (chain, authType) {},
            checkServerTrusted: function (chain, authType) {},
            getAcceptedIssuers: function () { return []; }
        }
    });

    var init = SSLContext.init.overload(
        '[Ljavax.net.ssl.KeyManager;', '[Ljavax.net.ssl.TrustManager;', 'java.security.SecureRandom');
    init.implementation = function (keyManagers, trustManagers, secureRandom) {
        console.log('[droidprobe] SSLContext.init intercepted');
        init.call(this, keyManagers, [TrustManager.$new()], secureRandom);
    };

    try {
        var CertificatePinner = Java.use('okhttp3.CertificatePinner');
        CertificatePinner.check.overload('java.lang.String', 'java.util.List').implementation =
            function (hostname, peerCertificates) {
                console.log('[droidprobe] CertificatePinner.check bypassed for ' + hostname);
            };
    } catch (err) {
        // OkHttp3 not present in the target.
    }

    try {
        var HostnameVerifier = Java.use('javax.net.ssl.HttpsURLConnection');
        HostnameVerifier.setDefaultHostnameVerifier.implementation = function (verifier) {
            console.log('[droidprobe] default HostnameVerifier replaced');
        };
    } catch (err) {
        // Hostname verification hooks are best-effort.
    }
});
`

// WriteUnpinningScript writes the embedded hook script to dir.
func (f *LocalFridaAdapter) WriteUnpinningScript(dir m.Path) (m.Path, error) {
	path := filepath.Join(string(dir), "unpin.js")

	if err := os.WriteFile(path, []byte(unpinningScript), 0o600); err != nil {
		return "", fmt.Errorf("failed to write unpinning script: %w", err)
	}

	return m.Path(path), nil
}

// Spawn launches the package under instrumentation and returns the captured
// console output once the frida CLI exits or the context deadline fires.
func (f *LocalFridaAdapter) Spawn(ctx context.Context, packageName string, script m.Path) (string, error) {
	output, err := f.runner.Run(ctx, "", "frida", "-U", "-f", packageName, "-l", string(script), "-q")
	if err != nil {
		return output, fmt.Errorf("frida spawn of %s failed: %w", packageName, err)
	}

	return output, nil
}

// Attach injects the script into an already-running process.
func (f *LocalFridaAdapter) Attach(ctx context.Context, process string, script m.Path) (string, error) {
	output, err := f.runner.Run(ctx, "", "frida", "-U", "-n", process, "-l", string(script), "-q")
	if err != nil {
		return output, fmt.Errorf("frida attach to %s failed: %w", process, err)
	}

	return output, nil
}

// AttachPID injects the script into an already-running process by PID.
func (f *LocalFridaAdapter) AttachPID(ctx context.Context, pid int, script m.Path) (string, error) {
	output, err := f.runner.Run(ctx, "", "frida", "-U", "-p", strconv.Itoa(pid), "-l", string(script), "-q")
	if err != nil {
		return output, fmt.Errorf("frida attach to pid %d failed: %w", pid, err)
	}

	return output, nil
}

// SetupServer deploys frida-server to the device over adb and starts it.
// adbd is restarted as root first; on production builds that fails and the
// push proceeds anyway in case adbd already runs privileged.
func (f *LocalFridaAdapter) SetupServer(ctx context.Context, serverBinary m.Path) error {
	if err := f.adb.Root(ctx); err != nil {
		slog.Debug("adb root unavailable, continuing", "error", err)
	}

	if err := f.adb.Push(ctx, serverBinary, fridaServerRemotePath); err != nil {
		return fmt.Errorf("failed to deploy frida-server: %w", err)
	}

	if _, err := f.adb.Shell(ctx, "chmod 755 "+fridaServerRemotePath); err != nil {
		return fmt.Errorf("failed to mark frida-server executable: %w", err)
	}

	// nohup with closed streams detaches the server; a bare `... &` keeps the
	// remote stdout open and the shell call blocks until the tool timeout.
	if _, err := f.adb.Shell(ctx, "nohup "+fridaServerRemotePath+" >/dev/null 2>&1 &"); err != nil {
		return fmt.Errorf("failed to start frida-server: %w", err)
	}

	return nil
}
