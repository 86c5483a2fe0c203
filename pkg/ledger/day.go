package ledger

import (
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

// NormalizeDay 将时间归一到对应 UTC 日期的正午，避免时区边界漂移
func NormalizeDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC)
}

// DayKey 返回 UTC 日期键，如 2024-01-01
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// DayBounds 返回 UTC 日期的起止时间（含起点，不含终点）
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// ParseDate 解析 YYYY-MM-DD 或 RFC3339 格式的日期
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %q", s)
}
