package structs

type MealQueueParam struct {
	Type        string `json:"type" form:"type"`
	MemberId    string `json:"member_id" form:"member_id" validate:"required"`
	TaskID      uint   `json:"task_id" form:"task_id"`
	Result      string `json:"result" form:"result"`
	IsDie       bool   `json:"is_die" form:"is_die"`
	QueueType   string `json:"queue_type" form:"queue_type"`
	Description string `json:"description" form:"description" validate:"required"`
	MealType    string `json:"meal_type" form:"meal_type"`
	Date        string `json:"date" form:"date"`
}

type CorrectionQueueParam struct {
	Type       string     `json:"type" form:"type"`
	MemberId   string     `json:"member_id" form:"member_id" validate:"required"`
	TaskID     uint       `json:"task_id" form:"task_id"`
	Result     string     `json:"result" form:"result"`
	IsDie      bool       `json:"is_die" form:"is_die"`
	QueueType  string     `json:"queue_type" form:"queue_type"`
	Action     string     `json:"action" form:"action" validate:"required,oneof=save reset delete delete_meal"`
	FoodItemID int64      `json:"food_item_id" form:"food_item_id" validate:"required_unless=Action delete_meal"`
	MealID     int64      `json:"meal_id" form:"meal_id" validate:"required_if=Action delete_meal"`
	Patch      MacroPatch `json:"patch" form:"patch"`
	Reason     string     `json:"reason" form:"reason"`
	Date       string     `json:"date" form:"date"`
}

type GoalQueueParam struct {
	Type            string             `json:"type" form:"type"`
	MemberId        string             `json:"member_id" form:"member_id" validate:"required"`
	TaskID          uint               `json:"task_id" form:"task_id"`
	Result          string             `json:"result" form:"result"`
	IsDie           bool               `json:"is_die" form:"is_die"`
	QueueType       string             `json:"queue_type" form:"queue_type"`
	Date            string             `json:"date" form:"date"`
	Config          *GoalConfiguration `json:"config" form:"config"`
	UseBasicTargets bool               `json:"use_basic_targets" form:"use_basic_targets"`
	// Period is daily (default) or monthly; a monthly goal defaults to Date's month.
	Period string `json:"period" form:"period" validate:"omitempty,oneof=daily monthly"`
	Year   int    `json:"year" form:"year" validate:"omitempty,min=1"`
	Month  int    `json:"month" form:"month" validate:"omitempty,min=1,max=12"`
}

type ProgressQueueParam struct {
	Type      string `json:"type" form:"type"`
	MemberId  string `json:"member_id" form:"member_id" validate:"required"`
	TaskID    uint   `json:"task_id" form:"task_id"`
	Result    string `json:"result" form:"result"`
	IsDie     bool   `json:"is_die" form:"is_die"`
	QueueType string `json:"queue_type" form:"queue_type"`
	Date      string `json:"date" form:"date"`
	StartDate string `json:"start_date" form:"start_date"`
	EndDate   string `json:"end_date" form:"end_date"`
	// Balance adds the meal balance analysis to a single-day report.
	Balance bool `json:"balance" form:"balance"`
}

type MismatchQueueResponse struct {
	TaskId uint   `json:"task_id"`
	Queue  string `json:"queue"`
}
