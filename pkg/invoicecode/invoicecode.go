// Package invoicecode 负责账单编号的格式化与解析。
//
// 编号格式：<PREFIX>-<YYYYMM>-<seq>，seq 至少 4 位补零，总长度不超过 MaxLength。
// 本包不访问数据库，序号由调用方从 invoice_sequences 计数器取得。
package invoicecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 编号前缀
const (
	PrefixRoom    = "ROOM"
	PrefixUtility = "UTIL"
	PrefixOther   = "OTHER"
)

// MaxLength 编号最大长度，与 invoices.invoice_code VARCHAR(20) 一致
const MaxLength = 20

var (
	ErrUnknownPrefix = errors.New("未知的账单编号前缀")
	ErrInvalidSeq    = errors.New("账单序号必须为正数")
	ErrTooLong       = errors.New("账单编号超出最大长度")
	ErrMalformed     = errors.New("账单编号格式错误")
)

// ValidPrefix 判断前缀是否合法
func ValidPrefix(prefix string) bool {
	switch prefix {
	case PrefixRoom, PrefixUtility, PrefixOther:
		return true
	}
	return false
}

// YearMonth 返回 t 在 loc 时区下的 YYYYMM
func YearMonth(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("200601")
}

// Format 生成编号，如 Format("UTIL", "202506", 7) → UTIL-202506-0007
func Format(prefix, yearMonth string, seq int64) (string, error) {
	if !ValidPrefix(prefix) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrefix, prefix)
	}
	if len(yearMonth) != 6 {
		return "", fmt.Errorf("%w: year_month=%q", ErrMalformed, yearMonth)
	}
	if seq <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSeq, seq)
	}

	code := fmt.Sprintf("%s-%s-%04d", prefix, yearMonth, seq)
	if len(code) > MaxLength {
		return "", fmt.Errorf("%w: %s", ErrTooLong, code)
	}
	return code, nil
}

// Code 已解析的账单编号
type Code struct {
	Prefix    string
	YearMonth string
	Seq       int64
}

// Parse 解析编号
func Parse(code string) (Code, error) {
	parts := strings.Split(code, "-")
	if len(parts) != 3 || len(code) > MaxLength {
		return Code{}, fmt.Errorf("%w: %q", ErrMalformed, code)
	}
	if !ValidPrefix(parts[0]) {
		return Code{}, fmt.Errorf("%w: %q", ErrUnknownPrefix, parts[0])
	}
	if _, err := time.Parse("200601", parts[1]); err != nil {
		return Code{}, fmt.Errorf("%w: %q", ErrMalformed, code)
	}
	if len(parts[2]) < 4 {
		return Code{}, fmt.Errorf("%w: %q", ErrMalformed, code)
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq <= 0 {
		return Code{}, fmt.Errorf("%w: %q", ErrMalformed, code)
	}
	return Code{Prefix: parts[0], YearMonth: parts[1], Seq: seq}, nil
}
