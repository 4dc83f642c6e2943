package service

import (
	"context"
	"fmt"
	"time"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/repository"
	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/pkg/invoicecode"
)

// InvoiceCodeGenerator 生成 <PREFIX>-<YYYYMM>-<seq> 账单编号
//
// 序号来自 invoice_sequences 计数器的原子自增，必须传入调用方事务内的 Repository，
// 这样编号与账单在同一事务中提交或回滚。
type InvoiceCodeGenerator struct {
	loc *time.Location
	now func() time.Time
}

// NewInvoiceCodeGenerator loc 为计费时区，YYYYMM 按该时区计算
func NewInvoiceCodeGenerator(loc *time.Location) *InvoiceCodeGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &InvoiceCodeGenerator{loc: loc, now: time.Now}
}

// Next 取下一个编号
func (g *InvoiceCodeGenerator) Next(ctx context.Context, tx *repository.Repository, prefix string) (string, error) {
	if !invoicecode.ValidPrefix(prefix) {
		return "", fmt.Errorf("%w: %q", invoicecode.ErrUnknownPrefix, prefix)
	}

	yearMonth := invoicecode.YearMonth(g.now(), g.loc)
	seq, err := tx.InvoiceSequence.Next(ctx, prefix, yearMonth)
	if err != nil {
		return "", fmt.Errorf("获取账单序号失败: %w", err)
	}
	return invoicecode.Format(prefix, yearMonth, seq)
}
