package models

import "time"

// PhaseAuditLog 批次阶段变更审计日志
// 说明：记录每一次阶段推进与管理员覆盖回退，支持按批次与时间范围检索。
type PhaseAuditLog struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	BatchID       uint      `gorm:"index;not null" json:"batch_id"`
	AdminID       uint      `gorm:"index;not null" json:"admin_id"`
	AdminUsername string    `gorm:"type:varchar(100);index;not null;default:''" json:"admin_username"`
	FromPhase     string    `gorm:"type:varchar(20);not null" json:"from_phase"`
	ToPhase       string    `gorm:"type:varchar(20);not null" json:"to_phase"`
	Source        string    `gorm:"type:varchar(20);index;not null" json:"source"` // transition/override
	Note          string    `gorm:"type:varchar(500)" json:"note"`                 // 覆盖操作必填原因
	RequestID     string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (PhaseAuditLog) TableName() string {
	return "phase_audit_logs"
}
