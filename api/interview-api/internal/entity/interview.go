package internal_entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audited carries the identity and timestamps shared by all tables.
type Audited struct {
	Id          string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedDate time.Time `json:"createdDate" gorm:"autoCreateTime"`
	UpdatedDate time.Time `json:"updatedDate" gorm:"autoUpdateTime"`
}

func (a *Audited) BeforeCreate(tx *gorm.DB) error {
	if a.Id == "" {
		a.Id = uuid.NewString()
	}
	return nil
}

// StringList stores a slice of strings as a jsonb column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *StringList) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported source type for StringList")
	}
}

type User struct {
	Audited
	Name     string `json:"name" gorm:"type:string;size:255;not null"`
	Email    string `json:"email" gorm:"type:string;size:255;not null;uniqueIndex"`
	Password string `json:"-" gorm:"type:string;size:255;not null"`
}

func (User) TableName() string {
	return "users"
}

type Interview struct {
	Audited
	Role       string     `json:"role" gorm:"type:string;size:255;not null"`
	Level      string     `json:"level" gorm:"type:string;size:50;not null"`
	Type       string     `json:"type" gorm:"type:string;size:50;not null"`
	Techstack  StringList `json:"techstack" gorm:"type:jsonb"`
	Questions  StringList `json:"questions" gorm:"type:jsonb;not null"`
	UserId     string     `json:"userid" gorm:"type:uuid;index"`
	Finalized  bool       `json:"finalized" gorm:"default:true"`
	CoverImage string     `json:"coverImage" gorm:"type:string;size:255"`
}

func (Interview) TableName() string {
	return "interviews"
}

// CREATE TABLE interviews (
//     id UUID PRIMARY KEY,
//     created_date TIMESTAMP NOT NULL DEFAULT NOW(),
//     updated_date TIMESTAMP,
//     role VARCHAR(255) NOT NULL,
//     level VARCHAR(50) NOT NULL,
//     type VARCHAR(50) NOT NULL,
//     techstack JSONB,
//     questions JSONB NOT NULL,
//     user_id UUID,
//     finalized BOOLEAN DEFAULT TRUE,
//     cover_image VARCHAR(255)
// );
