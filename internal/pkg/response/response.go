package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// codeErr carries the numeric API code proxyutil expects on failures.
type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string { return e.msg }
func (e codeErr) Code() uint32  { return e.code }

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error renders the failure envelope. The HTTP status stays 200; clients
// switch on the envelope code.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, codeErr{code: uint32(code), msg: message})
}
