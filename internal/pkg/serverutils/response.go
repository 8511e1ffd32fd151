package serverutils

type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) Response {
	return Response{
		Success: false,
		Code:    code,
		Error:   errorCode(code),
		Message: message,
	}
}

func errorCode(status int) string {
	switch status {
	case 400:
		return "bad_request"
	case 401:
		return "unauthorized"
	case 404:
		return "not_found"
	case 409:
		return "invalid_state"
	case 413:
		return "too_large"
	case 503:
		return "upstream_unavailable"
	}
	if status >= 500 {
		return "internal"
	}
	return "error"
}
