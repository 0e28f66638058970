package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/japaniel/zhreader/pkg/db"
	"github.com/japaniel/zhreader/pkg/segmenter"
	"github.com/japaniel/zhreader/pkg/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCEDICT = `# CC-CEDICT sample
你好 你好 [ni3 hao3] /hello/hi/
你 你 [ni3] /you (informal)/
好 好 [hao3] /good/well/
們 们 [men5] /plural marker for pronouns/
學生 学生 [xue2 sheng5] /student/
`

// freeAddr returns a loopback address that was free a moment ago.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// setupCLI writes a dictionary and a config pointing at a fresh database,
// a miniredis cache and a segmenter address. It returns the config path.
func setupCLI(t *testing.T) (cfgPath, segAddr string) {
	t.Helper()
	cfgPath, segAddr, _ = setupCLIWithRedis(t)
	return cfgPath, segAddr
}

func setupCLIWithRedis(t *testing.T) (cfgPath, segAddr string, mr *miniredis.Miniredis) {
	t.Helper()
	tmp := t.TempDir()
	mr = miniredis.RunT(t)

	dictPath := filepath.Join(tmp, "cedict_ts.u8")
	require.NoError(t, os.WriteFile(dictPath, []byte(testCEDICT), 0o644))

	segAddr = freeAddr(t)
	cfg := fmt.Sprintf(`
log:
  level: error
database:
  path: %s
redis:
  addr: %s
segmenter:
  addr: %s
  listen: %s
  timeout: 2s
  read_idle: 50ms
reader:
  workers: 2
  retry_backoff: 10ms
dictionary:
  path: %s
  batch_size: 2
`, filepath.Join(tmp, "zhreader.db"), mr.Addr(), segAddr, segAddr, dictPath)
	cfgPath = filepath.Join(tmp, "zhreader.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, segAddr, mr
}

func run(ctx context.Context, cfgPath, stdin string, args ...string) (string, error) {
	out, _, err := runWithStderr(ctx, cfgPath, stdin, args...)
	return out, err
}

func runWithStderr(ctx context.Context, cfgPath, stdin string, args ...string) (string, string, error) {
	cmd, cleanup := newRootCommand()
	defer cleanup()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// startSegmenter runs "segmenter serve" until the test ends.
func startSegmenter(t *testing.T, cfgPath, addr string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := run(ctx, cfgPath, "", "segmenter", "serve", "--no-download")
		done <- err
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("segmenter did not stop")
		}
	})

	client := segmenter.NewClient(addr, 200*time.Millisecond)
	require.Eventually(t, func() bool {
		_, err := client.Segment(context.Background(), "你")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "segmenter never came up")
}

func TestCLIWorkflow(t *testing.T) {
	ctx := context.Background()
	cfgPath, segAddr := setupCLI(t)

	out, err := run(ctx, cfgPath, "", "import-dict", "--no-download")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully imported 5 entries.")

	startSegmenter(t, cfgPath, segAddr)

	out, err = run(ctx, cfgPath, "", "user", "add", "mei")
	require.NoError(t, err)
	assert.Contains(t, out, "User mei saved")

	out, err = run(ctx, cfgPath, "你好！", "render")
	require.NoError(t, err)
	assert.Contains(t, out, `<span class="你好ni3hao3"`)
	assert.Contains(t, out, `<td class="phonetic" name="好">hǎo</td>`)
	assert.Contains(t, out, "<td>！</td>")

	out, err = run(ctx, cfgPath, "學生們", "render", "--variant", "traditional", "--phonetics", "zhuyin")
	require.NoError(t, err)
	assert.Contains(t, out, `<td class="phonetic" name="學">ㄒㄩㄝˊ</td>`)
	assert.Contains(t, out, `<td class="char">們</td>`)

	out, err = run(ctx, cfgPath, "你们好", "doc", "add", "mei", "My Doc")
	require.NoError(t, err)
	assert.Contains(t, out, `Document saved as "MyDoc"`)
	out, err = run(ctx, cfgPath, "你们好", "doc", "add", "mei", "My Doc")
	require.NoError(t, err)
	assert.Contains(t, out, `Document saved as "MyDoc-1"`)

	out, err = run(ctx, cfgPath, "", "doc", "list", "mei")
	require.NoError(t, err)
	assert.Contains(t, out, "MyDoc\t")
	assert.Contains(t, out, "MyDoc-1\t")

	out, err = run(ctx, cfgPath, "", "doc", "show", "mei", "MyDoc-1")
	require.NoError(t, err)
	assert.Contains(t, out, `<td class="char">们</td>`)

	out, err = run(ctx, cfgPath, "", "doc", "delete", "mei", "MyDoc-1")
	require.NoError(t, err)
	assert.Contains(t, out, `Document "MyDoc-1" deleted`)
	out, err = run(ctx, cfgPath, "", "doc", "list", "mei")
	require.NoError(t, err)
	assert.NotContains(t, out, "MyDoc-1")
	_, err = run(ctx, cfgPath, "", "doc", "show", "mei", "MyDoc-1")
	assert.True(t, errors.Is(err, db.ErrNotFound), "got %v", err)
	_, err = run(ctx, cfgPath, "", "doc", "delete", "mei", "MyDoc-1")
	assert.True(t, errors.Is(err, db.ErrNotFound), "got %v", err)

	out, err = run(ctx, cfgPath, "", "vocab", "save", "mei", "你好ni3hao3", "--from-doc", "MyDoc")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 你好 [nǐ hǎo]")
	_, err = run(ctx, cfgPath, "", "vocab", "save", "mei", "好hao3")
	require.NoError(t, err)

	out, err = run(ctx, cfgPath, "", "vocab", "list", "mei", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Characters (2): 你 好")
	assert.Contains(t, out, "Phrases (2): 你好 好")
	assert.Contains(t, out, "你好ni3hao3\t你好\tnǐ hǎo\t/hello/hi/")

	_, err = run(ctx, cfgPath, "", "vocab", "delete", "mei", "你好ni3hao3")
	require.NoError(t, err)
	out, err = run(ctx, cfgPath, "", "vocab", "list", "mei")
	require.NoError(t, err)
	assert.Contains(t, out, "Characters (1): 好")

	_, err = run(ctx, cfgPath, "", "vocab", "delete", "mei", "你好ni3hao3")
	assert.True(t, errors.Is(err, vocab.ErrVocabNotFound), "got %v", err)

	_, err = run(ctx, cfgPath, "", "vocab", "save", "mei", "龘da2")
	assert.True(t, errors.Is(err, vocab.ErrPhraseNotFound), "got %v", err)
}

func TestCLIAddURL(t *testing.T) {
	ctx := context.Background()
	cfgPath, segAddr := setupCLI(t)

	body, err := os.ReadFile(filepath.Join("..", "..", "pkg", "textsource", "testdata", "article.html"))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}))
	defer srv.Close()

	_, err = run(ctx, cfgPath, "", "import-dict", "--no-download")
	require.NoError(t, err)
	startSegmenter(t, cfgPath, segAddr)
	_, err = run(ctx, cfgPath, "", "user", "add", "mei", "--variant", "traditional")
	require.NoError(t, err)

	out, err := run(ctx, cfgPath, "", "doc", "add-url", "mei", srv.URL+"/lesson")
	require.NoError(t, err)
	assert.Contains(t, out, "学中文的第一天")

	out, errOut, err := runWithStderr(ctx, cfgPath, "", "render", "--url", srv.URL+"/lesson", "--sandbox")
	require.NoError(t, err)
	assert.Contains(t, out, `<span class="你好ni3hao3"`)

	_, id, ok := strings.Cut(strings.TrimSpace(errOut), "Sandbox document saved with ID: ")
	require.True(t, ok, "stderr: %s", errOut)
	stored, err := run(ctx, cfgPath, "", "render", "--sandbox-id", id)
	require.NoError(t, err)
	assert.Equal(t, out, stored)

	_, err = run(ctx, cfgPath, "", "render", "--sandbox-id", "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, db.ErrNotFound), "got %v", err)
}

func TestCLIClosesResourcesOnError(t *testing.T) {
	cfgPath, _, mr := setupCLIWithRedis(t)

	cmd, cleanup := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", cfgPath, "vocab", "save", "mei", "你好ni3hao3"})
	err := cmd.ExecuteContext(context.Background())
	assert.True(t, errors.Is(err, vocab.ErrPhraseNotFound), "got %v", err)
	require.Positive(t, mr.CurrentConnectionCount())

	cleanup()
	require.Eventually(t, func() bool {
		return mr.CurrentConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCLIMissingConfig(t *testing.T) {
	_, err := run(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), "", "user", "add", "mei")
	require.Error(t, err)
}
