package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("xclip exited 1")
	err := wrap(CapClipboard, "copy", ErrBackendFailed, cause)

	assert.True(t, errors.Is(err, ErrBackendFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "clipboard.copy: backend failed: xclip exited 1", err.Error())

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, CapClipboard, be.Capability)
	assert.Equal(t, "copy", be.Op)
}

func TestWrapKeepsTaxonomyKind(t *testing.T) {
	err := wrap(CapWindow, "maximize", ErrBackendFailed, fmt.Errorf("osascript: %w", ErrBackendTimeout))
	assert.True(t, errors.Is(err, ErrBackendTimeout))
	assert.False(t, errors.Is(err, ErrBackendFailed))

	assert.Nil(t, wrap(CapWindow, "maximize", ErrBackendFailed, nil))

	inner := invalid(CapWindow, "position", "bad")
	assert.Same(t, inner, wrap(CapWindow, "position", ErrBackendFailed, inner))
}

func TestCodeRoundTrip(t *testing.T) {
	for _, kind := range taxonomy {
		err := &Error{Capability: CapSystem, Op: "x", Kind: kind}
		code := Code(err)
		assert.NotEqual(t, "internal", code, kind.Error())
		assert.Same(t, kind, FromCode(code))
	}
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, "internal", Code(errors.New("boom")))
	assert.Same(t, ErrBackendFailed, FromCode("something_new"))
}

func TestCallWithTimeout(t *testing.T) {
	t.Run("returns value", func(t *testing.T) {
		v, err := callWithTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("backend ignores context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		_, err := callWithTimeout(context.Background(), 20*time.Millisecond, func(context.Context) (int, error) {
			<-release
			return 0, nil
		})
		assert.True(t, errors.Is(err, ErrBackendTimeout))
	})

	t.Run("backend honours context", func(t *testing.T) {
		err := callErr(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		assert.True(t, errors.Is(err, ErrBackendTimeout))
	})

	t.Run("caller cancels", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := callErr(ctx, time.Second, func(context.Context) error {
			<-release
			return nil
		})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, errors.Is(err, ErrBackendTimeout))
	})
}

func TestClipboardContentJSON(t *testing.T) {
	img := ImageContent(pngBytes(t))
	data, err := json.Marshal(img)
	require.NoError(t, err)

	var back ClipboardContent
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, img, back)

	require.NoError(t, json.Unmarshal([]byte(`{}`), &back))
	assert.Equal(t, TextContent(""), back)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"video"}`), &back))
}

func TestNotificationDataJSON(t *testing.T) {
	var d NotificationData
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Hi","icon":"https://x.test/a.png"}`), &d))
	assert.Equal(t, "Hi", d.Title)
	require.NotNil(t, d.Icon)
	assert.Equal(t, "x.test", d.Icon.Host)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Hi","icon":"https://x.test/a.png"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"title":"Hi","icon":"%zz"}`), &d))
}
