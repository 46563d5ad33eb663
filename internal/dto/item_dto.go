package dto

type CreateItemRequest struct {
	Title        string `json:"title" form:"title"`
	Category     string `json:"category" form:"category"`
	Description  string `json:"description" form:"description"`
	Location     string `json:"location" form:"location"`
	Time         string `json:"time" form:"time"`
	ContactName  string `json:"contactName" form:"contactName"`
	ContactPhone string `json:"contactPhone" form:"contactPhone"`
	ContactEmail string `json:"contactEmail" form:"contactEmail"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination derives totalPages = ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}
