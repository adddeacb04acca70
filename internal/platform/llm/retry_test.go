package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond, Multiplier: 2}
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("502")}},
		MockResponse{Content: "ok"},
	)
	p := WithRetry(mock, fastRetry())
	resp, err := p.Generate(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetryInvalidResponseOnlyOnce(t *testing.T) {
	bad := &ErrInvalidResponse{Err: errors.New("garbage")}
	mock := NewMockProvider(MockResponse{Err: bad}, MockResponse{Err: bad}, MockResponse{Content: "never"})
	p := WithRetry(mock, fastRetry())
	_, err := p.Generate(context.Background(), Request{})
	var inv *ErrInvalidResponse
	assert.True(t, errors.As(err, &inv))
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetryDoesNotRetryMaxTokensOrToolsUnsupported(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrMaxTokensExceeded{}}, MockResponse{Content: "never"})
	_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())

	mock = NewMockProvider(MockResponse{Err: ErrToolsUnsupported})
	_, err = WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrToolsUnsupported)
	assert.Equal(t, 1, mock.CallCount())
}

func TestBreakerOpensAfterConsecutiveOutages(t *testing.T) {
	mock := NewMockProvider()
	for i := 0; i < 5; i++ {
		mock.AddResponse(MockResponse{Err: &ErrProviderUnavailable{}})
	}
	p := WithBreaker(mock, 2, time.Minute, logger.NewNop())
	for i := 0; i < 2; i++ {
		_, err := p.Generate(context.Background(), Request{})
		require.Error(t, err)
	}
	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	require.True(t, errors.As(err, &unavail))
	assert.Equal(t, 2, mock.CallCount(), "open breaker must not reach the provider")
}

func TestBreakerIgnoresInvalidResponses(t *testing.T) {
	mock := NewMockProvider()
	for i := 0; i < 3; i++ {
		mock.AddResponse(MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad")}})
	}
	mock.AddText("fine")
	p := WithBreaker(mock, 2, time.Minute, logger.NewNop())
	for i := 0; i < 3; i++ {
		_, _ = p.Generate(context.Background(), Request{})
	}
	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "fine", resp.Content)
}

func TestTimeoutBoundsCall(t *testing.T) {
	slow := providerFunc(func(ctx context.Context, _ Request) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := WithTimeout(slow, 5*time.Millisecond).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type providerFunc func(ctx context.Context, req Request) (*Response, error)

func (f providerFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
func (f providerFunc) ModelID() string { return "func" }
