package algo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// HTTPError 非 2xx 响应
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// BaseClient 算法服务基础客户端
type BaseClient struct {
	serviceName    string
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
}

// BaseClientConfig 基础客户端配置
type BaseClientConfig struct {
	ServiceName string
	BaseURL     string
	Timeout     time.Duration
	// MaxRetries 0 means the default of 3, a negative value disables retries.
	MaxRetries int
	RetryDelay time.Duration
}

// NewBaseClient 创建基础客户端
func NewBaseClient(config BaseClientConfig) *BaseClient {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 100 * time.Millisecond
	}

	client := &BaseClient{
		serviceName: config.ServiceName,
		baseURL:     config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
	}

	client.circuitBreaker = client.createCircuitBreaker()

	return client
}

// createCircuitBreaker 创建熔断器
func (c *BaseClient) createCircuitBreaker() *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        c.serviceName,
		MaxRequests: 3,                // 半开状态下最大请求数
		Interval:    10 * time.Second, // 统计周期
		Timeout:     30 * time.Second, // 熔断器开启后等待时间
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 失败率 >= 60% 且请求数 >= 5 时触发熔断
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		// 4xx 是调用方的问题，不计入熔断
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			code := StatusCode(err)
			return code >= 400 && code < 500
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// Get 发送GET请求
func (c *BaseClient) Get(ctx context.Context, path string, result interface{}) error {
	return c.callWithRetry(ctx, http.MethodGet, c.baseURL+path, nil, result)
}

// Post 发送POST请求
func (c *BaseClient) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	var reqBody []byte
	var err error
	if body != nil {
		reqBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	return c.callWithRetry(ctx, http.MethodPost, c.baseURL+path, reqBody, result)
}

// callWithRetry 带重试的HTTP调用
func (c *BaseClient) callWithRetry(ctx context.Context, method, url string, reqBody []byte, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// 指数退避
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryDelay
			if backoff > 5*time.Second {
				backoff = 5 * time.Second
			}

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		// 通过熔断器执行调用
		response, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doHTTPCall(ctx, method, url, reqBody)
		})

		if err == nil {
			respBody := response.([]byte)
			if result != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, result); err != nil {
					return fmt.Errorf("unmarshal response: %w", err)
				}
			}
			return nil
		}

		lastErr = err

		// 判断是否应该重试
		if !c.shouldRetry(ctx, err) {
			break
		}
	}

	return fmt.Errorf("%s: %s %s: %w", c.serviceName, method, url, lastErr)
}

// doHTTPCall 执行实际的HTTP调用
func (c *BaseClient) doHTTPCall(ctx context.Context, method, url string, reqBody []byte) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// shouldRetry 判断错误是否应该重试
func (c *BaseClient) shouldRetry(ctx context.Context, err error) bool {
	// 超时错误、取消错误不重试
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	// 熔断器开启时不重试
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	// 4xx 不重试
	if code := StatusCode(err); code >= 400 && code < 500 {
		return false
	}
	return true
}

// HealthCheck 健康检查
func (c *BaseClient) HealthCheck(ctx context.Context) error {
	var result map[string]interface{}
	err := c.Get(ctx, "/health", &result)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	status, ok := result["status"].(string)
	if !ok || status != "healthy" {
		return fmt.Errorf("service unhealthy: %v", result)
	}

	return nil
}
