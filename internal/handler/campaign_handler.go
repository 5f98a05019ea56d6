package handler

import (
	"net/http"

	"github.com/blues/cds/internal/ledger"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 募捐活动处理器
type CampaignHandler struct {
	ledger *ledger.Ledger
}

// NewCampaignHandler 创建活动处理器
func NewCampaignHandler(l *ledger.Ledger) *CampaignHandler {
	return &CampaignHandler{ledger: l}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	goal, ok := parseAmount(c, req.Goal)
	if !ok {
		return
	}
	beneficiary, ok := parseAddress(c, req.Beneficiary)
	if !ok {
		return
	}

	id, err := h.ledger.CreateCampaign(caller, req.Name, req.Description, goal, req.DurationDays, beneficiary)
	if err != nil {
		FailWith(c, err)
		return
	}

	campaign, err := h.ledger.CampaignInfo(id)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "活动创建成功", ToCampaignResponse(campaign))
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	campaigns, err := h.ledger.Campaigns()
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取活动列表成功", ToCampaignResponseList(campaigns))
}

// GetActiveCampaigns 获取进行中的活动 id 列表
func (h *CampaignHandler) GetActiveCampaigns(c *gin.Context) {
	ids, err := h.ledger.ActiveCampaignIDs()
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取进行中活动成功", gin.H{"campaignIds": ids})
}

// GetCampaign 获取活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	campaign, err := h.ledger.CampaignInfo(id)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取活动详情成功", ToCampaignResponse(campaign))
}

// GetCampaignStats 获取活动统计信息
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := h.ledger.CampaignStatsByID(id)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动统计成功", CampaignStatsResponse{
		CampaignID:        stats.CampaignID,
		Goal:              stats.Goal.String(),
		Raised:            stats.Raised.String(),
		CompletionPercent: stats.CompletionPercent,
		DonorCount:        stats.DonorCount,
		DonationCount:     stats.DonationCount,
		Active:            stats.Active,
		Deadline:          stats.Deadline.Format("2006-01-02 15:04:05"),
		RemainingTime:     stats.RemainingTime.String(),
	})
}

// Donate 向活动捐款
func (h *CampaignHandler) Donate(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	receipt, err := h.ledger.Donate(caller, id, amount)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "捐款成功", ToDonationReceiptResponse(receipt))
}

// StopCampaign 终止活动
func (h *CampaignHandler) StopCampaign(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.ledger.StopCampaign(caller, id); err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "活动已终止", gin.H{"campaignId": id})
}

// WithdrawFunds 受益人提取善款
func (h *CampaignHandler) WithdrawFunds(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	amount, err := h.ledger.WithdrawCampaignFunds(caller, id)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "善款提取成功", gin.H{
		"campaignId": id,
		"amount":     amount.String(),
	})
}

// GetDonorHistory 查询捐款人历史
func (h *CampaignHandler) GetDonorHistory(c *gin.Context) {
	donor, ok := parseAddress(c, c.Param("address"))
	if !ok {
		return
	}

	donations, err := h.ledger.DonorHistory(donor)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取捐款历史成功", ToDonationResponseList(donations))
}
