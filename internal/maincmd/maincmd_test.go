package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/felys-lang/felys/internal/filetest"
	"github.com/felys-lang/felys/internal/maincmd"
)

// runCmd drives Cmd.Run directly (bypassing flag parsing) against one
// fixture and returns its stdout and exit value line, or its stderr output
// and the error if the run failed.
func runCmd(t *testing.T, file string, arg int) (string, error) {
	t.Helper()
	var buf, ebuf bytes.Buffer
	c := &maincmd.Cmd{Arg: arg}
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}
	err := c.Run(nil, stdio, []string{file})
	if err != nil {
		return ebuf.String(), err
	}
	return buf.String(), nil
}

func TestRunWorkedExamples(t *testing.T) {
	srcDir := filepath.Join("testdata", "in")
	want := map[string]string{
		"arithmetic.felys":   "14\n",
		"control_flow.felys": "20\n",
		"groups.felys":       "4\n",
		"stdlib.felys":       "hi 1\n0\n",
		"unpack.felys":       "30\n",
	}
	for _, fi := range filetest.SourceFiles(t, srcDir, ".felys") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			out, err := runCmd(t, filepath.Join(srcDir, fi.Name()), 0)
			require.NoError(t, err)
			require.Equal(t, want[fi.Name()], out)
		})
	}
}

func TestRunRejectsOutsideLoopAtBuildTime(t *testing.T) {
	var buf, ebuf bytes.Buffer
	c := &maincmd.Cmd{}
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	dir := t.TempDir()
	file := filepath.Join(dir, "bad.felys")
	require.NoError(t, os.WriteFile(file, []byte("fn main(a) { break; }"), 0600))

	err := c.Run(nil, stdio, []string{file})
	require.Error(t, err)
	require.Contains(t, ebuf.String(), "OutsideLoop")
	require.Empty(t, buf.String())
}
