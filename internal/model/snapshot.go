package model

import "time"

// WorkLogSnapshot 作业日志快照表：对应 work_log_snapshots（syncd 使用）
type WorkLogSnapshot struct {
	SnapshotID   string    `gorm:"type:uuid;primaryKey"               json:"snapshot_id"`
	Payload      JSONBlob  `gorm:"type:jsonb;not null"                json:"payload"`
	PartCount    int       `gorm:"not null;default:0"                 json:"part_count"`
	HistoryCount int       `gorm:"not null;default:0"                 json:"history_count"`
	ClientIP     string    `gorm:"type:varchar(64)"                   json:"client_ip,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (WorkLogSnapshot) TableName() string { return "work_log_snapshots" }
