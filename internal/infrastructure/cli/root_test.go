package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/matrixsh/internal/domain"
)

func isolate(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"MATRIXLLM_BASE_URL", "MATRIXSH_BASE_URL",
		"MATRIXLLM_API_KEY", "MATRIXSH_API_KEY",
		"MATRIXLLM_TOKEN", "MATRIXSH_TOKEN",
		"MATRIXLLM_MODEL", "MATRIXSH_MODEL",
		"MATRIXSH_MODE", "MATRIXSH_DEBUG",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("MATRIXSH_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
}

func execute(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(Options{In: strings.NewReader(stdin), Out: &out, Err: &errOut})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), ExitCode(err)
}

func healthServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionWithoutCredentialsIsStartupError(t *testing.T) {
	isolate(t)
	_, _, code := execute(t, "/exit\n")
	assert.Equal(t, domain.ExitStartupConfig, code)
}

func TestSessionHealthCheckFailure(t *testing.T) {
	isolate(t)
	srv := healthServer(t, http.StatusServiceUnavailable)
	_, _, code := execute(t, "/exit\n", "--url", srv.URL, "--key", "sk-test")
	assert.Equal(t, domain.ExitHealthCheck, code)
}

func TestSessionSkipHealthCheck(t *testing.T) {
	isolate(t)
	srv := healthServer(t, http.StatusServiceUnavailable)
	out, _, code := execute(t, "/exit\n", "--url", srv.URL, "--key", "sk-test", "--skip-health-check")
	assert.Equal(t, domain.ExitOK, code)
	assert.Contains(t, out, "gateway=skipped")
}

func TestSessionHealthyGateway(t *testing.T) {
	isolate(t)
	srv := healthServer(t, http.StatusOK)
	out, _, code := execute(t, "/quit\n", "--url", srv.URL, "--key", "sk-test", "--mode", "bash")
	assert.Equal(t, domain.ExitOK, code)
	assert.Contains(t, out, "MatrixShell")
	assert.Contains(t, out, "gateway=online")
	assert.Contains(t, out, "shell=bash")
}

func TestSessionEndOfInput(t *testing.T) {
	isolate(t)
	srv := healthServer(t, http.StatusOK)
	_, _, code := execute(t, "", "--url", srv.URL, "--key", "sk-test")
	assert.Equal(t, domain.ExitOK, code)
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	isolate(t)
	out, _, code := execute(t, "", "config", "show", "--key", "sk-secret-value")
	require.Equal(t, domain.ExitOK, code)
	assert.NotContains(t, out, "sk-secret-value")
	assert.Contains(t, out, redacted)
	assert.Contains(t, out, "base_url: "+domain.DefaultBaseURL)
}

func TestConfigValidate(t *testing.T) {
	isolate(t)
	_, _, code := execute(t, "", "config", "validate")
	assert.Equal(t, domain.ExitStartupConfig, code)

	out, _, code := execute(t, "", "config", "validate", "--key", "sk")
	assert.Equal(t, domain.ExitOK, code)
	assert.Contains(t, out, msgConfigurationValid)
}

func TestHistoryListEmpty(t *testing.T) {
	isolate(t)
	out, _, code := execute(t, "", "history", "list", "--dir", t.TempDir())
	require.Equal(t, domain.ExitOK, code)
	assert.Equal(t, msgNoHistoryRecorded+"\n", out)
}

func TestHistorySearchEmpty(t *testing.T) {
	isolate(t)
	out, _, code := execute(t, "", "history", "search", "nothing", "here")
	require.Equal(t, domain.ExitOK, code)
	assert.Equal(t, "No matches.\n", out)
}

func TestVersion(t *testing.T) {
	out, _, code := execute(t, "", "version")
	require.Equal(t, domain.ExitOK, code)
	assert.True(t, strings.HasPrefix(out, "MatrixShell version "), out)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, domain.ExitOK},
		{fmt.Errorf("wrapped: %w", domain.ErrStartupConfig), domain.ExitStartupConfig},
		{fmt.Errorf("%w: no answer", domain.ErrHealthCheck), domain.ExitHealthCheck},
		{&ExitError{Code: domain.ExitInterrupted}, domain.ExitInterrupted},
		{fmt.Errorf("boom"), domain.ExitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
	assert.True(t, Silent(&ExitError{Code: domain.ExitInterrupted}))
	assert.False(t, Silent(fmt.Errorf("boom")))
}
