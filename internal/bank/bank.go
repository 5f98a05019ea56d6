package bank

import (
	"errors"
	"math/big"

	"github.com/blues/cds/internal/apperr"
	"github.com/blues/cds/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// Bank 资金账户簿，是系统中唯一允许变更账户余额的入口。
// 写操作都在调用方的事务内执行，转账失败时整个事务一起回滚。
type Bank struct {
	db *gorm.DB
}

// New 创建账户簿
func New(db *gorm.DB) *Bank {
	return &Bank{db: db}
}

// Credit 外部价值入账，给指定地址增加余额
func (b *Bank) Credit(tx *gorm.DB, addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return apperr.Validation("入账金额无效")
	}
	if amount.Sign() == 0 {
		return nil
	}

	account, err := b.loadOrCreate(tx, addr)
	if err != nil {
		return apperr.Transfer("credit failed", err)
	}

	balance := account.Balance.Unwrap()
	balance.Add(balance, amount)
	account.Balance = model.NewBigInt(balance)

	if err := tx.Save(account).Error; err != nil {
		return apperr.Transfer("credit failed", err)
	}
	return nil
}

// Transfer 账户间转账，余额不足时返回 TransferError
func (b *Bank) Transfer(tx *gorm.DB, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return apperr.Validation("转账金额无效")
	}
	if amount.Sign() == 0 {
		return nil
	}

	var source model.Account
	err := tx.Where("address = ?", from.Hex()).First(&source).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Transfer("insufficient balance", nil)
		}
		return apperr.Transfer("transfer failed", err)
	}

	balance := source.Balance.Unwrap()
	if balance.Cmp(amount) < 0 {
		return apperr.Transfer("insufficient balance", nil)
	}

	balance.Sub(balance, amount)
	source.Balance = model.NewBigInt(balance)
	if err := tx.Save(&source).Error; err != nil {
		return apperr.Transfer("transfer failed", err)
	}

	dest, err := b.loadOrCreate(tx, to)
	if err != nil {
		return apperr.Transfer("transfer failed", err)
	}
	destBalance := dest.Balance.Unwrap()
	destBalance.Add(destBalance, amount)
	dest.Balance = model.NewBigInt(destBalance)
	if err := tx.Save(dest).Error; err != nil {
		return apperr.Transfer("transfer failed", err)
	}
	return nil
}

// Balance 查询地址余额，账户不存在时返回 0
func (b *Bank) Balance(addr common.Address) (*big.Int, error) {
	return b.BalanceTx(b.db, addr)
}

// BalanceTx 在指定事务内查询余额
func (b *Bank) BalanceTx(tx *gorm.DB, addr common.Address) (*big.Int, error) {
	var account model.Account
	err := tx.Where("address = ?", addr.Hex()).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return account.Balance.Unwrap(), nil
}

func (b *Bank) loadOrCreate(tx *gorm.DB, addr common.Address) (*model.Account, error) {
	var account model.Account
	err := tx.Where("address = ?", addr.Hex()).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = model.Account{
		Address: addr.Hex(),
		Balance: model.NewBigInt(big.NewInt(0)),
	}
	if err := tx.Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
