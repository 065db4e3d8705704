package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/goplus/tasslsrc/pkgs/artifacts"
	"github.com/opencontainers/go-digest"
)

// Output directory layout:
//
//	outDir/
//	  tassl-build/
//	    .lock          # held for the whole build
//	    .cache.json    # stamp of the last successful install
//	    build/src/     # scratch copy of the source tree, removed on success
//	    install/       # --prefix; include/, lib/, bin/
const (
	baseName  = "tassl-build"
	stampFile = ".cache.json"
	lockFile  = ".lock"
)

// buildStamp records how the current install was produced. It is
// informational: reuse is decided by the install directory alone.
type buildStamp struct {
	Target          string               `json:"target"`
	Host            string               `json:"host"`
	Source          string               `json:"source"`
	ConfigureDigest digest.Digest        `json:"configure_digest"`
	BuildTime       time.Time            `json:"build_time"`
	Artifacts       *artifacts.Artifacts `json:"artifacts"`
}

func loadStamp(path string) (*buildStamp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stamp buildStamp
	if err := json.Unmarshal(data, &stamp); err != nil {
		return nil, err
	}
	return &stamp, nil
}

func saveStamp(path string, stamp *buildStamp) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(stamp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
