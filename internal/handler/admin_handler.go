package handler

import (
	"net/http"

	"github.com/blues/cds/internal/ledger"
	"github.com/blues/cds/internal/reward"
	"github.com/gin-gonic/gin"
)

// AdminHandler 平台管理处理器
type AdminHandler struct {
	ledger *ledger.Ledger
	minter *reward.Minter
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(l *ledger.Ledger, m *reward.Minter) *AdminHandler {
	return &AdminHandler{ledger: l, minter: m}
}

// Pause 暂停台账
func (h *AdminHandler) Pause(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	if err := h.ledger.Pause(caller); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "台账已暂停", gin.H{"paused": true})
}

// Unpause 恢复台账
func (h *AdminHandler) Unpause(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	if err := h.ledger.Unpause(caller); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "台账已恢复", gin.H{"paused": false})
}

// EmergencyWithdraw 紧急提取托管账户全部余额
func (h *AdminHandler) EmergencyWithdraw(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req EmergencyWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}
	recipient, ok := parseAddress(c, req.Recipient)
	if !ok {
		return
	}

	amount, err := h.ledger.EmergencyWithdraw(caller, recipient)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "紧急提取成功", gin.H{
		"recipient": recipient.Hex(),
		"amount":    amount.String(),
	})
}

// SetPlatformFee 调整平台手续费
func (h *AdminHandler) SetPlatformFee(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req SetPlatformFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	if err := h.ledger.SetPlatformFee(caller, req.FeeBps); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "手续费已更新", gin.H{"feeBps": req.FeeBps})
}

// UpdateRoyalty 更新奖励凭证版税
func (h *AdminHandler) UpdateRoyalty(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req UpdateRoyaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}
	receiver, ok := parseAddress(c, req.Receiver)
	if !ok {
		return
	}

	if err := h.minter.UpdateDefaultRoyalty(caller, receiver, req.FeeBps); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "版税已更新", gin.H{
		"receiver": receiver.Hex(),
		"feeBps":   req.FeeBps,
	})
}

// GetPlatformStats 查询平台统计
func (h *AdminHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.ledger.PlatformStats()
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取平台统计成功", PlatformStatsResponse{
		TotalDonations:     stats.TotalDonations.String(),
		TotalFeesCollected: stats.TotalFeesCollected.String(),
		CampaignCount:      stats.CampaignCount,
		LedgerBalance:      stats.LedgerBalance.String(),
	})
}
