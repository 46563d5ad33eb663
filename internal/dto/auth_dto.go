package dto

import "time"

type RegisterRequest struct {
	Username  string `json:"username" form:"username"`
	Password  string `json:"password" form:"password"`
	StudentID string `json:"studentId" form:"studentId"`
	Email     string `json:"email" form:"email"`
	Phone     string `json:"phone" form:"phone"`
}

type LoginRequest struct {
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"rememberMe" form:"rememberMe"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	IsAdmin   bool         `json:"isAdmin"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error         bool              `json:"error"`
	Message       string            `json:"message"`
	Code          string            `json:"code,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	MissingFields []string          `json:"missingFields,omitempty"`
}

// Envelope wraps successful payloads.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
