package handler

import (
	"net/http"

	"github.com/blues/cds/internal/reward"
	"github.com/gin-gonic/gin"
)

// RewardHandler 奖励凭证处理器
type RewardHandler struct {
	minter *reward.Minter
}

// NewRewardHandler 创建奖励处理器
func NewRewardHandler(m *reward.Minter) *RewardHandler {
	return &RewardHandler{minter: m}
}

// GetReward 查询凭证元数据
func (h *RewardHandler) GetReward(c *gin.Context) {
	tokenID, ok := parseID(c, "id")
	if !ok {
		return
	}

	record, err := h.minter.Metadata(tokenID)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取凭证成功", ToRewardResponse(record))
}

// GetRoyalty 查询版税信息，salePrice 从查询参数读取
func (h *RewardHandler) GetRoyalty(c *gin.Context) {
	tokenID, ok := parseID(c, "id")
	if !ok {
		return
	}
	salePrice, ok := parseAmount(c, c.DefaultQuery("salePrice", "0"))
	if !ok {
		return
	}

	receiver, amount, err := h.minter.RoyaltyInfo(tokenID, salePrice)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取版税信息成功", RoyaltyResponse{
		Receiver: receiver.Hex(),
		Amount:   amount.String(),
	})
}

// GetTokensByOwner 查询地址持有的全部凭证 id
func (h *RewardHandler) GetTokensByOwner(c *gin.Context) {
	owner, ok := parseAddress(c, c.Param("address"))
	if !ok {
		return
	}

	ids, err := h.minter.TokensByOwner(owner)
	if err != nil {
		FailWith(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取持有凭证成功", gin.H{
		"owner":    owner.Hex(),
		"tokenIds": ids,
	})
}
