package registry

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeRules(t *testing.T, path, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
}

func TestHolder_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, "contract_version: \"1.0.0\"\nenabled_codes: [STR-01]\n")

	h, err := NewHolder(path, zap.NewNop())
	require.NoError(t, err)
	first := h.Current()
	assert.Equal(t, "1.0.0", first.ContractVersion())

	var hookCalls int
	h.SetReloadHook(func(s *Snapshot, err error) { hookCalls++ })

	writeRules(t, path, "contract_version: \"1.1.0\"\nenabled_codes: [STR-01, LEN-01]\n")
	next, err := h.Reload()
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", next.ContractVersion())
	assert.Same(t, next, h.Current())

	// the old snapshot is untouched by the reload
	assert.Equal(t, "1.0.0", first.ContractVersion())
	assert.Equal(t, []string{"STR-01"}, first.EnabledCodes(""))
	assert.Equal(t, 1, hookCalls)
}

func TestHolder_ReloadFailureKeepsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, "contract_version: \"1.0.0\"\nenabled_codes: [STR-01]\n")

	h, err := NewHolder(path, zap.NewNop())
	require.NoError(t, err)
	before := h.Current()

	var hookErr error
	h.SetReloadHook(func(s *Snapshot, err error) { hookErr = err })

	writeRules(t, path, "thresholds:\n  overall_accept: 7\n")
	_, err = h.Reload()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Same(t, before, h.Current())
	assert.Error(t, hookErr)
}

func TestNewHolder_FailsFast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, "enabled_codes: [")

	_, err := NewHolder(path, zap.NewNop())
	assert.Error(t, err)
}

func TestStaticHolder(t *testing.T) {
	s, err := Parse([]byte("enabled_codes: [STR-01]"))
	require.NoError(t, err)

	h := NewStaticHolder(s, zap.NewNop())
	assert.Same(t, s, h.Current())

	_, err = h.Reload()
	assert.Error(t, err, "static holders have no file to reload")
	assert.Same(t, s, h.Current())

	var nilHolder *Holder
	assert.Nil(t, nilHolder.Current())
}

func TestHolder_ConcurrentReadsDuringReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, "contract_version: \"1.0.0\"\nenabled_codes: [A, B]\n")

	h, err := NewHolder(path, zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := h.Current()
				codes := s.EnabledCodes("")
				// every snapshot is internally consistent
				switch s.ContractVersion() {
				case "1.0.0":
					assert.Equal(t, []string{"A", "B"}, codes)
				case "2.0.0":
					assert.Equal(t, []string{"C"}, codes)
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			writeRules(t, path, "contract_version: \"2.0.0\"\nenabled_codes: [C]\n")
		} else {
			writeRules(t, path, "contract_version: \"1.0.0\"\nenabled_codes: [A, B]\n")
		}
		_, err := h.Reload()
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	close(stop)
	wg.Wait()
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, "contract_version: \"1.0.0\"\nenabled_codes: [STR-01]\n")

	h, err := NewHolder(path, zap.NewNop())
	require.NoError(t, err)

	w, err := NewWatcher(h, zap.NewNop())
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	require.NoError(t, w.Start())
	defer w.Stop()

	writeRules(t, path, "contract_version: \"3.0.0\"\nenabled_codes: [STR-01]\n")

	require.Eventually(t, func() bool {
		return h.Current().ContractVersion() == "3.0.0"
	}, 5*time.Second, 20*time.Millisecond)
}
