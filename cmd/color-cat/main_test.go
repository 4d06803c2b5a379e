package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCat(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_NoLabel(t *testing.T) {
	// label "" sums to 0 and picks the first rotation color, red
	code, out, errOut := runCat(t, "abc\ndef\n")
	assert.Equal(t, 0, code)
	assert.Equal(t, "\x1b[31mabc\n\x1b[0m\x1b[31mdef\n\x1b[0m", out)
	assert.Empty(t, errOut)
}

func TestRun_Label(t *testing.T) {
	// "1" is byte 49, 49 mod 7 == 0, so red again
	code, out, _ := runCat(t, "x", "-l", "1")
	assert.Equal(t, 0, code)
	assert.Equal(t, "\x1b[7m\x1b[31m1\x1b[0m|\x1b[0m\x1b[31mx\x1b[0m", out)
}

func TestRun_ColorAndSeparator(t *testing.T) {
	code, out, _ := runCat(t, "line\n", "--label", "web", "-c", "GREEN", "-s", "+")
	assert.Equal(t, 0, code)
	assert.Equal(t, "\x1b[7m\x1b[32mweb\x1b[0m+\x1b[0m\x1b[32mline\n\x1b[0m", out)
}

func TestRun_Files(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("1\n2\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("\xff\xfe\n"), 0o600))

	code, out, _ := runCat(t, "ignored\n", "-c", "blue", a, b)
	assert.Equal(t, 0, code)
	assert.Equal(t, "\x1b[34m1\n\x1b[0m\x1b[34m2\n\x1b[0m\x1b[34m\xff\xfe\n\x1b[0m", out)
}

func TestRun_InvalidColor(t *testing.T) {
	code, out, errOut := runCat(t, "", "-c", "xxx")
	assert.Equal(t, 2, code)
	assert.Equal(t, "Invalid color name: xxx\n\n", errOut)
	assert.True(t, strings.HasPrefix(out, "Usage:"), out)
}

func TestRun_UnknownFlag(t *testing.T) {
	code, out, errOut := runCat(t, "", "--bogus")
	assert.Equal(t, 2, code)
	assert.Equal(t, "ArgumentError: unknown flag: --bogus\n\n", errOut)
	assert.Contains(t, out, "Usage:")
}

func TestRun_MissingFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("ok\n"), 0o600))

	code, out, errOut := runCat(t, "", a, filepath.Join(dir, "missing.txt"))
	assert.Equal(t, 1, code)
	assert.Equal(t, "\x1b[31mok\n\x1b[0m", out)
	assert.True(t, strings.HasPrefix(errOut, "ResourceError: open "))
	assert.Contains(t, errOut, "no such file or directory")
}

type brokenPipe struct{}

func (brokenPipe) Write([]byte) (int, error) {
	return 0, &os.PathError{Op: "write", Path: "/dev/stdout", Err: syscall.EPIPE}
}

func TestRun_BrokenPipe(t *testing.T) {
	var errOut bytes.Buffer
	code := run([]string{"-l", "x"}, strings.NewReader("a\nb\n"), brokenPipe{}, &errOut)
	assert.Equal(t, 0, code)
	assert.Empty(t, errOut.String())
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCat(t, "", "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "color-cat version dev")
}
