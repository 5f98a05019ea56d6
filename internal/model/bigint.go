package model

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// BigInt 金额字段，最小货币单位（wei级别），Postgres 存储为 numeric(78,0)
type BigInt struct {
	big.Int
}

// NewBigInt 从 big.Int 创建金额字段
func NewBigInt(x *big.Int) BigInt {
	var b BigInt
	if x != nil {
		b.Set(x)
	}
	return b
}

// Unwrap 返回底层 big.Int 的副本
func (b *BigInt) Unwrap() *big.Int {
	return new(big.Int).Set(&b.Int)
}

// Value 实现 driver.Valuer
func (b BigInt) Value() (driver.Value, error) {
	return b.String(), nil
}

// Scan 实现 sql.Scanner
func (b *BigInt) Scan(src interface{}) error {
	if src == nil {
		b.SetInt64(0)
		return nil
	}
	switch v := src.(type) {
	case string:
		return b.setString(v)
	case []byte:
		return b.setString(string(v))
	case int64:
		b.SetInt64(v)
		return nil
	case float64:
		// SQLite 的 NUMERIC 亲和性可能返回浮点数
		return b.setString(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return fmt.Errorf("cannot scan %T into BigInt", src)
	}
}

func (b *BigInt) setString(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		b.SetInt64(0)
		return nil
	}
	if _, ok := b.SetString(s, 10); !ok {
		return fmt.Errorf("invalid numeric value %q", s)
	}
	return nil
}

// MarshalJSON 序列化为十进制字符串，避免 JSON 数字精度丢失
func (b BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

// UnmarshalJSON 反序列化十进制字符串
func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return nil
	}
	return b.setString(s)
}

// GormDataType gorm 通用数据类型
func (BigInt) GormDataType() string {
	return "numeric(78,0)"
}

// GormDBDataType 按数据库方言返回列类型
func (BigInt) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return "TEXT"
	default:
		return "numeric(78,0)"
	}
}
