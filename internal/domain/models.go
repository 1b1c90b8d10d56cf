package domain

import (
	"math"
	"time"
)

// Role определяет уровень доступа пользователя
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid проверяет, что роль известна системе
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity представляет аутентифицированного субъекта запроса.
// Восстанавливается из токена на каждый запрос и нигде не хранится.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsAdmin сообщает, обладает ли субъект ролью администратора
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Account представляет учетную запись пользователя.
// Username и Email хранятся в нижнем регистре и уникальны.
type Account struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PublicUser публичный профиль пользователя
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Public возвращает профиль без хеша пароля
func (a *Account) Public() PublicUser {
	return PublicUser{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role}
}

// RoomType тип жилья в объявлении
type RoomType string

const (
	RoomStudio RoomType = "studio"
	RoomOneBed RoomType = "one-bed"
	RoomTwoBed RoomType = "two-bed"
	RoomShared RoomType = "shared"
)

// RoomTypes возвращает допустимые типы жилья
func RoomTypes() []string {
	return []string{string(RoomStudio), string(RoomOneBed), string(RoomTwoBed), string(RoomShared)}
}

// Listing представляет объявление о субаренде на ограниченный срок.
// EndDate всегда строго позже StartDate.
type Listing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Deposit     float64   `json:"deposit"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Location    string    `json:"location"`
	RoomType    RoomType  `json:"room_type"`
	Furnished   bool      `json:"furnished"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DurationDays возвращает длительность аренды в днях с округлением вверх
func (l *Listing) DurationDays() int {
	return int(math.Ceil(l.EndDate.Sub(l.StartDate).Hours() / 24))
}

// ListingPatch частичное обновление объявления; nil поля не меняются
type ListingPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Deposit     *float64   `json:"deposit,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Location    *string    `json:"location,omitempty"`
	RoomType    *RoomType  `json:"room_type,omitempty"`
	Furnished   *bool      `json:"furnished,omitempty"`
	Images      []string   `json:"images,omitempty"`
}

// Apply возвращает копию объявления с примененными изменениями
func (p ListingPatch) Apply(l Listing) Listing {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.Deposit != nil {
		l.Deposit = *p.Deposit
	}
	if p.StartDate != nil {
		l.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		l.EndDate = *p.EndDate
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.RoomType != nil {
		l.RoomType = *p.RoomType
	}
	if p.Furnished != nil {
		l.Furnished = *p.Furnished
	}
	if p.Images != nil {
		l.Images = append([]string(nil), p.Images...)
	}
	return l
}

// TipStatus статус чаевых.
// Допустимы только переходы pending -> completed и pending -> failed.
type TipStatus string

const (
	TipPending   TipStatus = "pending"
	TipCompleted TipStatus = "completed"
	TipFailed    TipStatus = "failed"
)

// Terminal сообщает, является ли статус конечным
func (s TipStatus) Terminal() bool {
	return s == TipCompleted || s == TipFailed
}

// Tip представляет денежное обещание владельцу объявления
type Tip struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listing_id"`
	FromUserID    string    `json:"from_user_id"`
	ToUserID      string    `json:"to_user_id"`
	Amount        float64   `json:"amount"`
	Message       string    `json:"message,omitempty"`
	Status        TipStatus `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TipPatch поля, записываемые при смене статуса
type TipPatch struct {
	TransactionID *string
	FailureReason *string
	UpdatedAt     time.Time
}

// TipFilter условия выборки чаевых для агрегатов
type TipFilter struct {
	ListingID  string
	FromUserID string
	Status     TipStatus
}
