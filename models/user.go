package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:100"`
	Password  string    `json:"-" gorm:"not null"`
	Role      string    `json:"role" gorm:"not null;default:'user';size:20"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	LastLogin *time.Time `json:"last_login"`

	// EditorSettings carries the user's timeline editor preferences
	// (snapping/razor/timing defaults, track label format). The client
	// reads them at startup and replays them onto the bridge's mode
	// flags; the engine itself never reads this column.
	EditorSettings JSON  `json:"editor_settings" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Projects     []Project     `json:"projects,omitempty" gorm:"foreignKey:UserID"`
	AtomicClips  []AtomicClip  `json:"atomic_clips,omitempty" gorm:"foreignKey:UserID"`
	RenderTasks  []RenderTask  `json:"render_tasks,omitempty" gorm:"foreignKey:UserID"`
}

type UserCreateRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type UserUpdateRequest struct {
	Username       string `json:"username" binding:"omitempty,min=3,max=50"`
	Email          string `json:"email" binding:"omitempty,email"`
	EditorSettings JSON   `json:"editor_settings" binding:"omitempty"`
}

type UserLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID             uint       `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"is_active"`
	EditorSettings JSON       `json:"editor_settings"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) HashPassword() error {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedBytes)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		IsActive:       u.IsActive,
		EditorSettings: u.EditorSettings,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// DefaultEditorSettings mirrors the bridge's own demo-data defaults,
// so a fresh account and an unbound engine agree on initial modes.
func DefaultEditorSettings() JSON {
	return JSON{
		"snapping_mode":      true,
		"razor_mode":         false,
		"timing_mode":        false,
		"follow_playhead":    false,
		"track_label_format": "Track %s",
	}
}