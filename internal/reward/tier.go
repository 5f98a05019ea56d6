package reward

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// Tier 捐款人等级，按单笔捐款净额划分
type Tier string

const (
	TierSupporter Tier = "Supporter"
	TierBronze    Tier = "Bronze"
	TierSilver    Tier = "Silver"
	TierGold      Tier = "Gold"
	TierPlatinum  Tier = "Platinum"
	TierDiamond   Tier = "Diamond"
)

// 等级下限，最小货币单位，1枚 = 1e18
var (
	diamondMin  = new(big.Int).Mul(big.NewInt(10), big.NewInt(params.Ether))
	platinumMin = new(big.Int).Mul(big.NewInt(5), big.NewInt(params.Ether))
	goldMin     = big.NewInt(params.Ether)
	silverMin   = big.NewInt(params.Ether / 2)
	bronzeMin   = big.NewInt(params.Ether / 10)
)

// TierFor 计算金额对应的等级，下限包含，从高到低匹配。
// 低于 Bronze 下限但达到铸造门槛的捐款归入 Supporter。
func TierFor(amount *big.Int) Tier {
	switch {
	case amount.Cmp(diamondMin) >= 0:
		return TierDiamond
	case amount.Cmp(platinumMin) >= 0:
		return TierPlatinum
	case amount.Cmp(goldMin) >= 0:
		return TierGold
	case amount.Cmp(silverMin) >= 0:
		return TierSilver
	case amount.Cmp(bronzeMin) >= 0:
		return TierBronze
	default:
		return TierSupporter
	}
}
