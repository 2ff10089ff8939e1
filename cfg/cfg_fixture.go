// SPDX-License-Identifier: ice License 1.0

//go:build test

package cfg

import (
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"
)

func init() {
	mustInit(testConfigFiles()...)
}

// testConfigFiles locates every application.yaml a test binary could depend
// on: next to the working directory (or its .testdata/), next to the test
// executable, and at the module root relative to this file. Missing candidates
// are fine, mustInit takes the first one that reads.
func testConfigFiles() []string {
	var candidates []string
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, ".testdata", "application.yaml"), filepath.Join(wd, "application.yaml"))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "application.yaml"))
	}
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // Only the file path matters here.
	moduleRoot := filepath.Dir(filepath.Dir(thisFile))
	candidates = append(candidates, filepath.Join(moduleRoot, "application.yaml"))

	var files []string
	for _, pattern := range candidates {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			log.Println(errors.Wrapf(err, "glob failed for [%v]", pattern))

			continue
		}
		files = append(files, matches...)
	}

	return files
}
