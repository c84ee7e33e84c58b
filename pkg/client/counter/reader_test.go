package counter_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pixiv/pixiv/pkg/client/counter"
)

type readCloser struct {
	io.Reader
	closeErr error
}

func (r readCloser) Close() error {
	return r.closeErr
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}

func TestReadCloser(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		body          io.ReadCloser
		expectedBytes int64
		expectedErr   string
	}{
		{name: "empty", body: readCloser{Reader: strings.NewReader("")}},
		{name: "json", body: readCloser{Reader: strings.NewReader(`{"status":"success"}`)}, expectedBytes: 20},
		{name: "close error", body: readCloser{Reader: strings.NewReader("abc"), closeErr: errors.New("close failed")}, expectedBytes: 3, expectedErr: "close failed"},
		{name: "read error", body: readCloser{Reader: io.MultiReader(strings.NewReader("abc"), failingReader{}), closeErr: errors.New("close failed")}, expectedBytes: 3, expectedErr: "read failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			var reportedBytes int64
			var reportedErr error
			body := counter.NewReadCloser(tc.body, func(bytes int64, err error) {
				calls++
				reportedBytes = bytes
				reportedErr = err
			})

			_, _ = io.ReadAll(body)
			assert.Equal(t, tc.expectedBytes, body.Bytes())
			_ = body.Close()
			_ = body.Close()

			assert.Equal(t, 1, calls)
			assert.Equal(t, tc.expectedBytes, reportedBytes)
			if tc.expectedErr == "" {
				require.NoError(t, reportedErr)
			} else {
				require.EqualError(t, reportedErr, tc.expectedErr)
			}
		})
	}
}
