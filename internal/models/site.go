package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *UserProfile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

type RoleUpdate struct {
	Role string `json:"role" validate:"required,oneof=customer admin"`
}

// ContactSettings is a single-row table (id 1).
type ContactSettings struct {
	ID           int       `json:"id"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	WhatsApp     string    `json:"whatsapp,omitempty"`
	OpeningHours string    `json:"opening_hours,omitempty"`
	MapURL       string    `json:"map_url,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ContactSettingsInput struct {
	Phone        string `json:"phone" validate:"required,max=32"`
	Email        string `json:"email" validate:"required,email"`
	Address      string `json:"address" validate:"required,max=300"`
	WhatsApp     string `json:"whatsapp,omitempty" validate:"max=32"`
	OpeningHours string `json:"opening_hours,omitempty" validate:"max=200"`
	MapURL       string `json:"map_url,omitempty" validate:"omitempty,url"`
}

type Testimonial struct {
	ID        uuid.UUID `json:"id"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Quote     string    `json:"quote"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactMessage struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"max=32"`
	Message string `json:"message" validate:"required,min=5,max=4000"`
}

// AboutPage is assembled from static copy and the contact settings.
type AboutPage struct {
	SiteName    string           `json:"site_name"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	FoundedYear int              `json:"founded_year,omitempty"`
	Contact     *ContactSettings `json:"contact,omitempty"`
}

type HomePage struct {
	SiteName     string           `json:"site_name"`
	Featured     []*Vehicle       `json:"featured"`
	Testimonials []*Testimonial   `json:"testimonials"`
	Contact      *ContactSettings `json:"contact,omitempty"`
}
