package dto

// TransitionRequest 任务状态转换请求
type TransitionRequest struct {
	Status  string `json:"status" binding:"required"`
	UserID  string `json:"user_id" binding:"required"`
	Comment string `json:"comment"`
}
