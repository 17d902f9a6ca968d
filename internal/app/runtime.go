package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "POS_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads POS_TEST_MODE once. Any value strconv.ParseBool accepts as true
// enables test mode.
func detectTestMode() {
	enabled, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeFlag.Store(enabled)
}

// InTestMode reports whether binaries should skip runtime side effects such as opening
// the database pool or binding a port.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the flag after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
