package service

import (
	"time"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/internal/dto"
)

// parseDate 解析 YYYY-MM-DD，统一按 UTC 零点存储
func parseDate(s string) (time.Time, error) {
	return time.Parse(dto.DateLayout, s)
}

// parseOptionalDate nil 或空串返回 nil
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	return t.Format(dto.DateLayout)
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

// formatTimestamp 零值与 nil 均输出空串
func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dto.DateTimeLayout)
}

func strPtr(s string) *string {
	return &s
}
