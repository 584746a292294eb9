package report

import (
	"fmt"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

// FormatHMS 秒数格式化为 HH:MM:SS，负数带前导 -
func FormatHMS(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, seconds/3600, seconds%3600/60, seconds%60)
}

// FormatElapsed 计时器显示用的 M:SS
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// completedAt 完了日時列：日期 + 时间戳中的 hh:mm:ss
func completedAt(h model.WorkHistory) string {
	if len(h.Timestamp) >= 19 {
		return h.Date + " " + h.Timestamp[11:19]
	}
	return h.Date
}
