package domain

import "time"

// SearchConstraint параметры поиска объявлений.
// Page нумеруется с 1.
type SearchConstraint struct {
	StartDate *time.Time
	EndDate   *time.Time
	MinPrice  *float64
	MaxPrice  *float64
	Location  string
	Page      int
	PageSize  int
}

// Filter возвращает условия выборки без параметров пагинации
func (c SearchConstraint) Filter() ListingFilter {
	return ListingFilter{
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		MinPrice:  c.MinPrice,
		MaxPrice:  c.MaxPrice,
		Location:  c.Location,
	}
}

// ListingFilter условия выборки объявлений на уровне хранилища
type ListingFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	MinPrice  *float64
	MaxPrice  *float64
	Location  string
}

// ListingPage страница результатов поиска
type ListingPage struct {
	Items      []*Listing `json:"items"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// UserSummary строка списка последних пользователей
type UserSummary struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingSummary строка списка последних объявлений
type ListingSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Location  string    `json:"location"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TipSummary строка списка последних чаевых
type TipSummary struct {
	ID         string    `json:"id"`
	Amount     float64   `json:"amount"`
	Status     TipStatus `json:"status"`
	FromUserID string    `json:"from_user_id"`
	ListingID  string    `json:"listing_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// AdminReport сводка для панели администратора, вычисляется на каждый запрос
type AdminReport struct {
	TotalUsers              int64             `json:"total_users"`
	TotalListings           int64             `json:"total_listings"`
	TotalCompletedTipAmount float64           `json:"total_completed_tip_amount"`
	LatestUsers             []*UserSummary    `json:"latest_users"`
	LatestListings          []*ListingSummary `json:"latest_listings"`
	LatestTips              []*TipSummary     `json:"latest_tips"`
	GeneratedAt             time.Time         `json:"generated_at"`
}
