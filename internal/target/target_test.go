package target

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/mogproject/color-ssh/internal/errors"
)

func TestParseHostSpec(t *testing.T) {
	tests := []struct {
		spec string
		want Target
	}{
		{"server-1", Target{Host: "server-1", Original: "server-1"}},
		{"user@server-1", Target{User: "user", Host: "server-1", Original: "user@server-1"}},
		{"user@host:2222", Target{User: "user", Host: "host", Port: "2222", Original: "user@host:2222"}},
		{"host:22", Target{Host: "host", Port: "22", Original: "host:22"}},
		{"host:0", Target{Host: "host", Port: "0", Original: "host:0"}},
		{"10.0.0.1", Target{Host: "10.0.0.1", Original: "10.0.0.1"}},
		{"\xff\xfe", Target{Host: "\xff\xfe", Original: "\xff\xfe"}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseHostSpec(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHostSpec_Errors(t *testing.T) {
	for _, spec := range []string{"", "@", ":", "a:b", "a@@c:0", "a@b@c", "a:1:2", "@host", "user@", "host:", "a:b:c"} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseHostSpec(spec)
			require.Error(t, err)
			assert.True(t, cerrors.IsArgumentError(err))
			assert.Contains(t, err.Error(), "invalid host format: "+spec)
		})
	}
}

func TestParseHostSpecs(t *testing.T) {
	targets, err := ParseHostSpecs([]string{"a", "u@b:10"})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "a", targets[0].Host)
	assert.Equal(t, "10", targets[1].Port)

	_, err = ParseHostSpecs([]string{"a", "b:x", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b:x")
}

func TestTarget_Address(t *testing.T) {
	assert.Equal(t, "host", Target{Host: "host", Port: "22"}.Address())
	assert.Equal(t, "u@host", Target{User: "u", Host: "host"}.Address())
	assert.Equal(t, "u@host:22", Target{User: "u", Host: "host", Port: "22"}.String())
	assert.Equal(t, "host", Target{Host: "host"}.String())
	assert.True(t, Target{Port: "1"}.HasPort())
	assert.False(t, Target{}.HasPort())
}

func TestReadHosts(t *testing.T) {
	hosts, err := ReadHosts(strings.NewReader("server-1\n\n  user@server-2:2222  \n\t\nserver-3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"server-1", "user@server-2:2222", "server-3"}, hosts)

	hosts, err = ReadHosts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, hosts)
}

func TestLoadHostFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n\nc\n"), 0o600))

	hosts, err := LoadHostFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, hosts)
}

func TestLoadHostFile_Missing(t *testing.T) {
	_, err := LoadHostFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, 1, cerrors.ExitCode(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSplitHostString(t *testing.T) {
	hosts, err := SplitHostString(" a  b\tc ")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, hosts)

	_, err = SplitHostString("   ")
	require.Error(t, err)
	assert.Equal(t, 2, cerrors.ExitCode(err))
}
