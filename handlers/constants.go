package handlers

import "time"

const (
	// 監査ログとイベントを突き合わせる際の許容時間
	AuditLogTimeWindow = 10 * time.Second
)
