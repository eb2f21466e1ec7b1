package storage

// RunMeta 一次回放运行的元数据 / metadata of one replay run.
type RunMeta struct {
	ID            string `json:"id"`
	TrajectoryDir string `json:"trajectory_dir"`
	ResponseFile  string `json:"response_file"`
	Total         int    `json:"total"`
	Executed      int    `json:"executed"`
	Skipped       int    `json:"skipped"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
}

// ActionEntry 运行中单个动作的结果 / outcome of a single action within a run.
type ActionEntry struct {
	RunID      string `json:"run_id"`
	Seq        int    `json:"seq"`
	ActionType string `json:"action_type"`
	Args       string `json:"args"`
	Status     string `json:"status"` // executed | unknown | skipped
	CreatedAt  string `json:"created_at"`
}

// MilestoneEntry 一次里程碑截图记录 / one milestone capture record.
type MilestoneEntry struct {
	RunID       string `json:"run_id,omitempty"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// Store 持久化接口 / persistence interface for run history.
type Store interface {
	CreateRun(meta RunMeta) error
	FinishRun(meta RunMeta) error
	LoadRun(id string) (RunMeta, error)
	ListRuns() ([]RunMeta, error)

	LogAction(entry ActionEntry) error
	LoadActions(runID string) ([]ActionEntry, error)

	RecordMilestone(entry MilestoneEntry) error
	ListMilestones() ([]MilestoneEntry, error)

	Close() error
}
