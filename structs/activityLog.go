package structs

type ActivityLogJsonModel struct {
	Type      string       `json:"type"`
	MemberID  string       `json:"member_id,omitempty"`
	Queue     string       `json:"queue"`
	TaskID    uint         `json:"task_id"`
	Result    bool         `json:"result"`
	Message   string       `json:"message"`
	Messages  []ErrorModel `json:"messages"`
	ElapsedMs int64        `json:"elapsed_ms"`
}

type ErrorModel struct {
	MemberID     string `json:"member_id"`
	ErrorKind    string `json:"error_kind"`
	ErrorMessage string `json:"error_message"`
}
