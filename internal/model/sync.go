package model

// SyncStats 单次入库统计
type SyncStats struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Add 合并统计
func (s *SyncStats) Add(o SyncStats) {
	s.Saved += o.Saved
	s.Skipped += o.Skipped
	s.Errors += o.Errors
}

// SyncJob 后台入库任务
type SyncJob struct {
	Places     []*RawPlace
	CategoryID *uint64
	Source     string // 触发来源，仅用于日志
}
