package app

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"
)

// SafeBuffer is a goroutine-safe buffer for capturing log output in tests.
// Stack resolution fans out across goroutines, so a plain bytes.Buffer
// would race.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest builds an App whose logs are captured in the returned
// buffer. The log level is forced to debug so assertions can see every
// stage.
func SetupAppTest(t *testing.T, outW io.Writer, cfg Config) (*App, *SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	resolved, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("resolving config: %v", err)
	}

	logBuffer := &SafeBuffer{}
	testApp := NewApp(outW, logBuffer, resolved)

	t.Cleanup(func() {
		if os.Getenv("STRATA_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
