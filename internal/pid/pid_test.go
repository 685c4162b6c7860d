package pid_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/hwmonitor/internal/errors"
	"codeberg.org/mutker/hwmonitor/internal/pid"
)

func TestWriteAndRemove(t *testing.T) {
	f := pid.At(filepath.Join(t.TempDir(), "hwmonitor.pid"))

	require.NoError(t, f.Write())
	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, f.Remove())
}

func TestWriteReplacesStaleFile(t *testing.T) {
	f := pid.At(filepath.Join(t.TempDir(), "hwmonitor.pid"))
	require.NoError(t, os.WriteFile(f.Path(), []byte("not a pid"), 0o600))

	require.NoError(t, f.Write())
}

func TestWriteRefusesLiveProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	f := pid.At(filepath.Join(t.TempDir(), "hwmonitor.pid"))
	require.NoError(t, os.WriteFile(f.Path(), []byte(strconv.Itoa(cmd.Process.Pid)), 0o600))

	err := f.Write()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}
