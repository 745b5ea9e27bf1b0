package errors

import (
	"time"

	"github.com/go-kratos/kratos/v2/errors"
)

// UnifiedErrorResponse 统一错误响应格式
type UnifiedErrorResponse struct {
	Success   bool   `json:"success"`    // 始终为false
	ErrorCode string `json:"error_code"` // kratos reason
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"` // RFC3339

	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	Path      string `json:"path,omitempty"`
	Method    string `json:"method,omitempty"`

	status int
}

// FromError converts any error into a response. Errors that are not kratos
// errors become 500 with an unknown reason.
func FromError(err error) *UnifiedErrorResponse {
	kerr := errors.FromError(err)
	if kerr == nil {
		kerr = ErrInternalServerError
	}
	return &UnifiedErrorResponse{
		Success:   false,
		ErrorCode: kerr.Reason,
		Message:   kerr.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		status:    int(kerr.Code),
	}
}

// WithRequestID 添加请求ID
func (e *UnifiedErrorResponse) WithRequestID(requestID string) *UnifiedErrorResponse {
	e.RequestID = requestID
	return e
}

// WithTraceID 添加链路追踪ID
func (e *UnifiedErrorResponse) WithTraceID(traceID string) *UnifiedErrorResponse {
	e.TraceID = traceID
	return e
}

// WithRequest 添加请求方法和路径
func (e *UnifiedErrorResponse) WithRequest(method, path string) *UnifiedErrorResponse {
	e.Method = method
	e.Path = path
	return e
}

// HTTPStatus 获取HTTP状态码
func (e *UnifiedErrorResponse) HTTPStatus() int {
	if e.status < 400 || e.status > 599 {
		return 500
	}
	return e.status
}
