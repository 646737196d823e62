package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shouni/go-mail-trace/pkg/retry"
)

type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	// NOTE: モック側は型付きのnil (*http.Response) を返す必要があります。
	// interface{}(nil) のままだと型アサーションがパニックするため。
	return args.Get(0).(*http.Response), args.Error(1)
}

func TestNew(t *testing.T) {
	t.Run("default timeout", func(t *testing.T) {
		client := New(0)
		assert.Equal(t, DefaultHTTPTimeout, client.httpClient.(*http.Client).Timeout)
	})
	t.Run("custom timeout", func(t *testing.T) {
		timeout := 10 * time.Second
		client := New(timeout)
		assert.Equal(t, timeout, client.httpClient.(*http.Client).Timeout)
	})
	t.Run("with HTTP client option", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		client := New(10*time.Second, WithHTTPClient(mockClient))
		assert.Equal(t, mockClient, client.httpClient)
	})
}

func TestWithMaxRetries(t *testing.T) {
	client := &Client{
		retryConfig: retry.Config{},
	}
	client.WithMaxRetries(5)
	assert.Equal(t, uint64(5), client.retryConfig.MaxRetries)
}

func TestNonRetryableHTTPError_Error(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		expected   string
		statusCode int
	}{
		{"non-empty body", []byte("error body"), "HTTPクライアントエラー (非リトライ対象): ステータスコード 400, ボディ: error body", 400},
		{"empty body", nil, "HTTPクライアントエラー (非リトライ対象): ステータスコード 400, ボディなし", 400},
		{"truncated body", []byte(strings.Repeat("a", 1025)), "HTTPクライアントエラー (非リトライ対象): ステータスコード 400, ボディ: " + strings.Repeat("a", 1024) + "...", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &NonRetryableHTTPError{StatusCode: tt.statusCode, Body: tt.body}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

// fastRetryConfig はテストを高速化するためのリトライ設定です。
func fastRetryConfig() retry.Config {
	return retry.Config{MaxRetries: 0, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

func TestFetchDocument(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockBody := bytes.NewReader([]byte("<html><body><p>ok</p></body></html>"))
		mockResponse := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(mockBody),
		}
		mockClient.On("Do", mock.Anything).Return(mockResponse, nil)

		client := &Client{httpClient: mockClient, retryConfig: fastRetryConfig()}
		doc, err := client.FetchDocument(context.Background(), "https://example.com")
		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "ok", doc.Find("p").Text())
		mockClient.AssertExpectations(t)
	})
	t.Run("user agent is set", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		var gotUA string
		mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
			gotUA = req.Header.Get("User-Agent")
			return true
		})).Return(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("<html></html>")),
		}, nil)

		client := &Client{httpClient: mockClient, retryConfig: fastRetryConfig()}
		_, err := client.FetchDocument(context.Background(), "https://example.com")
		assert.NoError(t, err)
		assert.Equal(t, UserAgent, gotUA)
	})
	t.Run("http client error", func(t *testing.T) {
		mockClient := new(MockHTTPClient)

		// 型付きのnil (*http.Response) を返す
		var resp *http.Response
		mockClient.On("Do", mock.Anything).Return(resp, errors.New("network error"))

		client := &Client{httpClient: mockClient, retryConfig: fastRetryConfig()}
		doc, err := client.FetchDocument(context.Background(), "https://example.com")
		assert.Error(t, err)
		assert.Nil(t, doc)
		mockClient.AssertExpectations(t)
	})
	t.Run("non-retryable error", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockBody := bytes.NewReader([]byte("bad request"))
		mockResponse := &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(mockBody),
		}
		mockClient.On("Do", mock.Anything).Return(mockResponse, nil)

		client := &Client{httpClient: mockClient, retryConfig: fastRetryConfig()}
		doc, err := client.FetchDocument(context.Background(), "https://example.com")
		assert.Error(t, err)
		assert.Nil(t, doc)
		assert.True(t, IsNonRetryableError(err))
		mockClient.AssertExpectations(t)
	})
}

func TestPostFormAndFetchDocument(t *testing.T) {
	t.Run("successful post", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		var gotContentType string
		var gotBody string
		mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
			gotContentType = req.Header.Get("Content-Type")
			b, _ := io.ReadAll(req.Body)
			gotBody = string(b)
			return true
		})).Return(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("<html><body><a href='http://x.com/'>x</a></body></html>")),
		}, nil)

		client := &Client{httpClient: mockClient, retryConfig: fastRetryConfig()}
		form := url.Values{}
		form.Set("q", "test query")

		doc, err := client.PostFormAndFetchDocument(context.Background(), "https://example.com", form)
		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
		assert.Equal(t, "q=test+query", gotBody)
	})
	t.Run("non-retryable error", func(t *testing.T) {
		mockClient := new(MockHTTPClient)
		mockResponse := &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader("bad request")),
		}
		mockClient.On("Do", mock.Anything).Return(mockResponse, nil)

		client := &Client{httpClient: mockClient, retryConfig: fastRetryConfig()}
		doc, err := client.PostFormAndFetchDocument(context.Background(), "https://example.com", url.Values{})
		assert.Error(t, err)
		assert.Nil(t, doc)
		mockClient.AssertExpectations(t)
	})
}

func TestIsNonRetryableError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.False(t, IsNonRetryableError(nil))
	})
	t.Run("non-retryable error", func(t *testing.T) {
		err := &NonRetryableHTTPError{}
		assert.True(t, IsNonRetryableError(err))
	})
	t.Run("other error type", func(t *testing.T) {
		assert.False(t, IsNonRetryableError(errors.New("some error")))
	})
}
