package httpapi

// Result is the uniform response envelope the portal front end expects.
// - code: 2000 on success, -1 on failure
// - type: 'success' | 'error' | 'warning'
// - message: string
// - result: any
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultSessionExpired uses code=60401 + HTTP 401 so the front-end
	// interceptor can redirect to login.
	ResultSessionExpired = 60401
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

func SessionExpired() Result[any] {
	return Result[any]{Code: ResultSessionExpired, Type: "error", Message: "session expired", Result: nil}
}
