package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDigestPostsForm(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		texts []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		mu.Lock()
		texts = append(texts, r.PostForm.Get("text"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier("TOKEN", "42").WithAPIURL(server.URL + "/")
	require.NoError(t, n.PublishDigest(context.Background(), "digest body"))
	assert.Equal(t, []string{"digest body"}, texts)
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewNotifier("TOKEN", "42").WithAPIURL(server.URL).PublishDigest(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	assert.Error(t, NewNotifier("", "42").PublishDigest(context.Background(), "x"))
}

func TestSplit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"short"}, split("short", 10))

	text := strings.Repeat("а", 8) + "\n\n" + strings.Repeat("б", 8)
	assert.Equal(t, []string{strings.Repeat("а", 8), strings.Repeat("б", 8)}, split(text, 12))

	for _, chunk := range split(strings.Repeat("x", 25), 10) {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 10)
	}
}
