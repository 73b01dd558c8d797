package errors

// ErrorCode identifies an application error class in API responses
type ErrorCode int32

const (
	ErrorCode_HTTP_OK          ErrorCode = 200
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1005

	ErrorCode_TESTER_NOT_FOUND     ErrorCode = 2000
	ErrorCode_TESTER_ALREADY_EXIST ErrorCode = 2001
	ErrorCode_AGENT_NOT_LINKED     ErrorCode = 2002

	ErrorCode_WEBHOOK_INVALID_SIGNATURE ErrorCode = 3000
	ErrorCode_WEBHOOK_UNKNOWN_AGENT     ErrorCode = 3001

	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 6000
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_ALREADY_EXISTS:             "ALREADY_EXISTS",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_TESTER_NOT_FOUND:           "TESTER_NOT_FOUND",
	ErrorCode_TESTER_ALREADY_EXIST:       "TESTER_ALREADY_EXIST",
	ErrorCode_AGENT_NOT_LINKED:           "AGENT_NOT_LINKED",
	ErrorCode_WEBHOOK_INVALID_SIGNATURE:  "WEBHOOK_INVALID_SIGNATURE",
	ErrorCode_WEBHOOK_UNKNOWN_AGENT:      "WEBHOOK_UNKNOWN_AGENT",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
