package builtin

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-nexus/pkg/memory/semantic"
	"go-nexus/pkg/tools"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func newRegistry(t *testing.T) (*tools.Registry, string) {
	t.Helper()
	root := t.TempDir()
	r := tools.NewRegistry()
	Register(r, Options{FileRoot: root, ShellDir: filepath.Join(root, "sandbox"), Memory: semantic.NewInMemory(nil)})
	return r, root
}

func TestHash_SHA256(t *testing.T) {
	r, _ := newRegistry(t)

	res := r.Execute(context.Background(), "hash", map[string]any{"text": "abc", "algorithm": "sha256"})
	require.True(t, res.Success, res.Error)
	out := res.Output.(map[string]any)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", out["hash"])
	assert.Equal(t, 3, out["input_length"])
	assert.Equal(t, "sha256", res.Metadata["algorithm"])
}

func TestHash_DefaultsAndUnsupported(t *testing.T) {
	r, _ := newRegistry(t)

	res := r.Execute(context.Background(), "hash", map[string]any{"text": "abc"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "sha256", res.Output.(map[string]any)["algorithm"])

	res = r.Execute(context.Background(), "hash", map[string]any{"text": "abc", "algorithm": "crc32"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "crc32")
}

func TestEncryptDecrypt(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	enc := r.Execute(ctx, "encrypt", map[string]any{"text": "attack at dawn", "password": "hunter2"})
	require.True(t, enc.Success, enc.Error)
	ct := enc.Output.(map[string]any)["ciphertext"].(string)
	assert.NotContains(t, ct, "attack")

	dec := r.Execute(ctx, "decrypt", map[string]any{"ciphertext": ct, "password": "hunter2"})
	require.True(t, dec.Success, dec.Error)
	assert.Equal(t, "attack at dawn", dec.Output.(map[string]any)["plaintext"])

	bad := r.Execute(ctx, "decrypt", map[string]any{"ciphertext": ct, "password": "wrong"})
	assert.False(t, bad.Success)
	assert.Contains(t, bad.Error, "decryption failed")
}

func TestBase64_Decode(t *testing.T) {
	r, _ := newRegistry(t)

	res := r.Execute(context.Background(), "base64", map[string]any{"text": "aGVsbG8=", "operation": "decode"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "hello", res.Output.(map[string]any)["result"])
}

func TestFiles_WriteReadList(t *testing.T) {
	r, root := newRegistry(t)
	ctx := context.Background()

	res := r.Execute(ctx, "write_file", map[string]any{"path": "notes/a.txt", "content": "hello"})
	require.True(t, res.Success, res.Error)
	res = r.Execute(ctx, "write_file", map[string]any{"path": "notes/a.txt", "content": " world", "append": true})
	require.True(t, res.Success, res.Error)

	b, err := os.ReadFile(filepath.Join(root, "notes", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(b))

	res = r.Execute(ctx, "read_file", map[string]any{"path": "notes/a.txt", "max_bytes": 5})
	require.True(t, res.Success, res.Error)
	out := res.Output.(map[string]any)
	assert.Equal(t, "hello", out["content"])
	assert.Equal(t, true, out["truncated"])

	res = r.Execute(ctx, "list_directory", map[string]any{"path": "notes"})
	require.True(t, res.Success, res.Error)
	entries := res.Output.(map[string]any)["entries"].([]entry)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.EqualValues(t, 11, entries[0].Size)
}

func TestFiles_RejectEscape(t *testing.T) {
	r, _ := newRegistry(t)

	res := r.Execute(context.Background(), "read_file", map[string]any{"path": "../../etc/passwd"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "outside")
}

func TestShell(t *testing.T) {
	r, root := newRegistry(t)
	ctx := context.Background()

	res := r.Execute(ctx, "shell", map[string]any{"command": "echo hi && pwd"})
	require.True(t, res.Success, res.Error)
	out := res.Output.(map[string]any)
	assert.Contains(t, out["stdout"], "hi")
	assert.Contains(t, out["stdout"], filepath.Join(root, "sandbox"))
	assert.Equal(t, 0, out["exit_code"])

	res = r.Execute(ctx, "shell", map[string]any{"command": "echo nope >&2; exit 3"})
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Output.(map[string]any)["exit_code"])
	assert.Contains(t, res.Error, "nope")
}

func TestShell_Timeout(t *testing.T) {
	r, _ := newRegistry(t)

	res := r.Execute(context.Background(), "shell", map[string]any{"command": "sleep 5", "timeout_seconds": 1})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out")
}

func TestShell_NonPositiveTimeoutUsesDefault(t *testing.T) {
	r, _ := newRegistry(t)

	for _, timeout := range []int{0, -5} {
		res := r.Execute(context.Background(), "shell", map[string]any{"command": "echo ok", "timeout_seconds": timeout})
		require.True(t, res.Success, "timeout_seconds=%d: %s", timeout, res.Error)
		assert.Equal(t, "ok\n", res.Output.(map[string]any)["stdout"])
	}
}

func TestTruncateOutput_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncateOutput("short"))

	long := "a" + strings.Repeat("é", maxShellOutput)
	out := truncateOutput(long)
	assert.True(t, utf8.ValidString(out))
	require.True(t, strings.HasSuffix(out, "\n... [output truncated]"))
	kept := strings.TrimSuffix(out, "\n... [output truncated]")
	assert.Equal(t, maxShellOutput, utf8.RuneCountInString(kept))
}

func TestHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Method", r.Method)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	defer srv.Close()
	r, _ := newRegistry(t)

	res := r.Execute(context.Background(), "http_request", map[string]any{"url": srv.URL, "method": "post", "body": "{}"})
	require.True(t, res.Success, res.Error)
	out := res.Output.(map[string]any)
	assert.Equal(t, http.StatusCreated, out["status_code"])
	assert.Equal(t, "created", out["body"])
	assert.Equal(t, "POST", out["headers"].(map[string]string)["X-Method"])
}

func TestMemorySearch(t *testing.T) {
	store := semantic.NewInMemory(nil)
	_, err := store.Store(context.Background(), "Task: deploy\nResult: done", nil)
	require.NoError(t, err)
	r := tools.NewRegistry()
	r.Register(NewMemorySearch(store))

	res := r.Execute(context.Background(), "memory_search", map[string]any{"query": "deploy"})
	require.True(t, res.Success, res.Error)
	matches := res.Output.(map[string]any)["results"].([]match)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Content, "deploy")
}

func TestRegister_AllToolsValidWithRequiredArgs(t *testing.T) {
	r, _ := newRegistry(t)

	assert.ElementsMatch(t, []string{
		"hash", "base64", "encrypt", "decrypt", "read_file", "write_file", "list_directory",
		"shell", "http_request", "dns_lookup", "port_check", "memory_search",
	}, r.List())
	for _, d := range r.Descriptors() {
		for _, p := range d.Parameters {
			if !p.Required {
				continue
			}
			tool, _ := r.Get(d.Name)
			err := tool.Validate(map[string]any{})
			require.Error(t, err, d.Name)
			assert.Contains(t, err.Error(), "Missing required parameter")
			break
		}
	}
}
