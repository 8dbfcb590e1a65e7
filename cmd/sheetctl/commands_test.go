package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/security"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordCommand(t *testing.T) {
	root := newRootCmd(logger.New(logger.Options{ServiceName: "sheetctl-test", Output: io.Discard}))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"hash-password", "segredo"})

	require.NoError(t, root.Execute())
	digest := strings.TrimSpace(out.String())
	ok, err := security.VerifyPassword("segredo", digest)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHashPasswordRequiresArgument(t *testing.T) {
	root := newRootCmd(logger.New(logger.Options{ServiceName: "sheetctl-test", Output: io.Discard}))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"hash-password"})

	require.Error(t, root.Execute())
}

func TestHashPasswordGenerate(t *testing.T) {
	root := newRootCmd(logger.New(logger.Options{ServiceName: "sheetctl-test", Output: io.Discard}))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"hash-password", "--generate", "14"})

	require.NoError(t, root.Execute())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	password := strings.TrimPrefix(lines[0], "password: ")
	require.Len(t, password, 14)
	ok, err := security.VerifyPassword(password, lines[1])
	require.NoError(t, err)
	require.True(t, ok)
}

func TestParseFilters(t *testing.T) {
	values, err := parseFilters([]string{"Setor=Viveiro", " Status =Pendente ", "Responsável="})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Setor": "Viveiro", "Status": "Pendente ", "Responsável": ""}, values)

	_, err = parseFilters([]string{"Setor"})
	require.Error(t, err)
	_, err = parseFilters([]string{"=x"})
	require.Error(t, err)
	_, err = parseFilters([]string{"Setor=a", "Setor=b"})
	require.Error(t, err)
}
