// Package testing is blank-imported by tests that touch binaries or configuration. It
// switches the process into test mode and keeps developer env files out of the run.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("POS_TEST_MODE", "1")
		if _, ok := os.LookupEnv("POS_ENV_FILES"); !ok {
			_ = os.Setenv("POS_ENV_FILES", "testdata/none.env")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
