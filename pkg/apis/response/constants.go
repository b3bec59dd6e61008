package response

type ErrCode int

const (
	_                          ErrCode = 10000 + iota
	ErrCodeMalformedJSON               // 10001
	ErrCodeRequestBody                 // 10002
	ErrCodeComponentNotFound           // 10003
	ErrCodeRegisterNotFound            // 10004
	ErrCodeLegalActionNotFound         // 10005
	ErrCodeCommandRejected             // 10006
	ErrCodeReplyTimeout                // 10007
	ErrCodeInvalidTimeout              // 10008
)

// !!! IMPORTANT PLEASE READ FIRST !!!
// You SHOULD add new code at the end, and append comment of number
// Meanwhile, the corresponding error message SHOULD be appended in response.errors
// The order MUST be consistent between them
