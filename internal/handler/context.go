package handler

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// CallerKey 调用者身份在 gin 上下文中的键，由路由中间件写入
const CallerKey = "caller_address"

// CallerHeader 调用者身份请求头。鉴权由外部负责，核心只消费身份。
const CallerHeader = "X-Caller-Address"

// callerAddress 从上下文取调用者地址，缺失时返回 401
func callerAddress(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "缺少调用者身份，请设置 "+CallerHeader+" 请求头")
		return common.Address{}, false
	}
	return v.(common.Address), true
}

// parseID 解析路径中的数字 id
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的"+name)
		return 0, false
	}
	return id, true
}

// parseAmount 解析最小单位十进制金额字符串
func parseAmount(c *gin.Context, s string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的金额")
		return nil, false
	}
	return amount, true
}

// parseAddress 解析十六进制地址参数
func parseAddress(c *gin.Context, s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址")
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}
