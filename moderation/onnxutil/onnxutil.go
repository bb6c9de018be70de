// Shared bootstrap for local ONNX model providers: locating the onnxruntime
// shared library and initializing the process-wide environment exactly once.
package onnxutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var initMu sync.Mutex

// EnsureRuntime points the binding at a usable onnxruntime shared library and
// initializes the environment. Safe to call from multiple model loaders; the
// first successful call wins.
func EnsureRuntime(bundleDir string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// resolveSharedLibraryPath attempts to locate a platform-specific onnxruntime
// shared library. If ONNXRUNTIME_SHARED_LIBRARY_PATH is set, it wins;
// otherwise we probe common names/locations.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
