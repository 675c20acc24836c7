package prompt_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/domain"
	"conduit/internal/prompt"
)

var device = domain.DeviceInfo{Identity: "phone-1", Device: "Pixel", Browser: "Chrome"}

// syncBuffer is a goroutine-safe output sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTerminal_Answers(t *testing.T) {
	in, w := io.Pipe()
	out := &syncBuffer{}
	term := prompt.NewTerminal(in, out)

	answers := []struct {
		line string
		want bool
	}{{"y", true}, {" YES ", true}, {"n", false}, {"", false}, {"maybe", false}}

	for i, a := range answers {
		result := make(chan bool, 1)
		go func() {
			ok, err := term.Approve(context.Background(), device)
			assert.NoError(t, err)
			result <- ok
		}()
		require.Eventually(t, func() bool { return strings.Count(out.String(), "[y/N]: ") == i+1 }, time.Second, 5*time.Millisecond)
		_, err := io.WriteString(w, a.line+"\n")
		require.NoError(t, err)
		assert.Equal(t, a.want, <-result, "answer %q", a.line)
	}
	assert.Contains(t, out.String(), "Pair Pixel on Chrome (identity phone-1)?")
}

func TestTerminal_ContextEndsPrompt(t *testing.T) {
	in, _ := io.Pipe()
	term := prompt.NewTerminal(in, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok, err := term.Approve(ctx, device)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTerminal_EOFRejects(t *testing.T) {
	term := prompt.NewTerminal(strings.NewReader(""), io.Discard)
	ok, err := term.Approve(context.Background(), device)
	assert.False(t, ok)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTerminal_PromptsAreSerialized(t *testing.T) {
	in, w := io.Pipe()
	out := &syncBuffer{}
	term := prompt.NewTerminal(in, out)

	results := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		go func() {
			ok, _ := term.Approve(context.Background(), device)
			results <- ok
		}()
	}

	require.Eventually(t, func() bool { return strings.Count(out.String(), "[y/N]") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, strings.Count(out.String(), "[y/N]"))

	_, _ = io.WriteString(w, "y\n")
	first := <-results
	require.Eventually(t, func() bool { return strings.Count(out.String(), "[y/N]") == 2 }, time.Second, 5*time.Millisecond)
	_, _ = io.WriteString(w, "n\n")
	second := <-results

	assert.ElementsMatch(t, []bool{true, false}, []bool{first, second})
}

func TestPolicy(t *testing.T) {
	ok, err := prompt.Policy{Allow: true}.Approve(context.Background(), device)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = prompt.Policy{}.Approve(context.Background(), device)
	require.NoError(t, err)
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = prompt.Policy{Allow: true}.Approve(ctx, device)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForPolicy(t *testing.T) {
	a, err := prompt.ForPolicy(prompt.PolicyAllow)
	require.NoError(t, err)
	assert.Equal(t, prompt.Policy{Allow: true}, a)

	a, err = prompt.ForPolicy(prompt.PolicyDeny)
	require.NoError(t, err)
	assert.Equal(t, prompt.Policy{}, a)

	_, err = prompt.ForPolicy("sometimes")
	assert.Error(t, err)
}
