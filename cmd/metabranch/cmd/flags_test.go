package cmd

import (
	"bytes"
	"io"
	"testing"

	"github.com/metabranch/metabranch/pkg/model"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetaEntry(t *testing.T) {
	for _, toPin := range []struct {
		entry     string
		key       string
		value     string
		remove    bool
		expectErr bool
	}{
		{entry: "team=storage", key: "team", value: "storage"},
		{entry: "team=", key: "team", remove: true},
		{entry: "a=b=c", key: "a", value: "b=c"},
		{entry: "noequal", expectErr: true},
		{entry: "=value", expectErr: true},
		{entry: "", expectErr: true},
	} {
		testcase := toPin
		t.Run(testcase.entry, func(t *testing.T) {
			key, value, remove, err := parseMetaEntry(testcase.entry)
			if testcase.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testcase.key, key)
			assert.Equal(t, testcase.value, value)
			assert.Equal(t, testcase.remove, remove)
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestPrintAccount(t *testing.T) {
	account := model.NewAccountDescriptor(7)
	account.Name = "Ann"

	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, printAccount(cmd, account))
	assert.Contains(t, buf.String(), "name: Ann")

	cmd.SetOut(failingWriter{})
	require.Error(t, printAccount(cmd, account), "a failed write must surface")
}

func TestAccountIDArg(t *testing.T) {
	id, err := accountIDArg([]string{"1000042"})
	require.NoError(t, err)
	assert.Equal(t, model.AccountID(1000042), id)

	_, err = accountIDArg(nil)
	require.Error(t, err)

	_, err = accountIDArg([]string{"1", "2"})
	require.Error(t, err)

	_, err = accountIDArg([]string{"not-a-number"})
	require.Error(t, err)
}
