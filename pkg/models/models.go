package models

// Domain models matching the database schema in db/migrations/0001_init.sql.
// Timestamps (Created, Updated, Event.Date, News.PublishedAt) are unix
// milliseconds in UTC; date-only fields are "2006-01-02" strings, empty when unset.

// DateLayout is the layout of date-only fields.
const DateLayout = "2006-01-02"

type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	Email        string `json:"email" db:"email"`
	Phone        string `json:"phone" db:"phone"`
	Avatar       string `json:"avatar,omitempty" db:"avatar"`
	Bio          string `json:"bio,omitempty" db:"bio"`
	BirthDate    string `json:"birth_date,omitempty" db:"birth_date"`
	IsActive     bool   `json:"is_active" db:"is_active"`
	IsSuperuser  bool   `json:"is_superuser" db:"is_superuser"`
	Created      int64  `json:"created" db:"created"`
	Updated      int64  `json:"updated" db:"updated"`
}

// IsAdmin reports whether the user may use the admin console.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

// DisplayName is the full name, or the username when no name is set.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

type Laboratory struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Icon        string `json:"icon,omitempty" db:"icon"`
	Image       string `json:"image,omitempty" db:"image"`
	Description string `json:"description,omitempty" db:"description"`
	Order       int    `json:"order" db:"sort_order"`
	IsActive    bool   `json:"is_active" db:"is_active"`
	Created     int64  `json:"created" db:"created"`
	Updated     int64  `json:"updated" db:"updated"`
}

type Program struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	LaboratoryID *int64 `json:"laboratory_id,omitempty" db:"laboratory_id"`
	Image        string `json:"image,omitempty" db:"image"`
	Description  string `json:"description,omitempty" db:"description"`
	Level        Level  `json:"level" db:"level"`
	AgeMin       int    `json:"age_min" db:"age_min"`
	AgeMax       int    `json:"age_max" db:"age_max"`
	Format       Format `json:"format" db:"format"`
	Duration     string `json:"duration,omitempty" db:"duration"`
	StartDate    string `json:"start_date,omitempty" db:"start_date"`
	EndDate      string `json:"end_date,omitempty" db:"end_date"`
	IsActive     bool   `json:"is_active" db:"is_active"`
	Created      int64  `json:"created" db:"created"`
	Updated      int64  `json:"updated" db:"updated"`
}

type Event struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	EventType   EventType `json:"event_type" db:"event_type"`
	Image       string    `json:"image,omitempty" db:"image"`
	Description string    `json:"description,omitempty" db:"description"`
	Date        int64     `json:"date" db:"date"`
	Location    string    `json:"location,omitempty" db:"location"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	Created     int64     `json:"created" db:"created"`
	Updated     int64     `json:"updated" db:"updated"`
}

type Project struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	AuthorID    *int64 `json:"author_id,omitempty" db:"author_id"`
	Image       string `json:"image,omitempty" db:"image"`
	Description string `json:"description,omitempty" db:"description"`
	Stage       Stage  `json:"stage" db:"stage"`
	TeamMembers string `json:"team_members,omitempty" db:"team_members"`
	IsApproved  bool   `json:"is_approved" db:"is_approved"`
	IsActive    bool   `json:"is_active" db:"is_active"`
	Created     int64  `json:"created" db:"created"`
	Updated     int64  `json:"updated" db:"updated"`
}

// OwnedBy reports whether userID is the project's author.
func (p *Project) OwnedBy(userID int64) bool {
	return p.AuthorID != nil && *p.AuthorID == userID
}

type Partner struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Logo     string `json:"logo,omitempty" db:"logo"`
	Website  string `json:"website,omitempty" db:"website"`
	Order    int    `json:"order" db:"sort_order"`
	IsActive bool   `json:"is_active" db:"is_active"`
	Created  int64  `json:"created" db:"created"`
}

type Application struct {
	ID        int64             `json:"id" db:"id"`
	UserID    int64             `json:"user_id" db:"user_id"`
	ProgramID int64             `json:"program_id" db:"program_id"`
	Status    ApplicationStatus `json:"status" db:"status"`
	Message   string            `json:"message,omitempty" db:"message"`
	Created   int64             `json:"created" db:"created"`
	Updated   int64             `json:"updated" db:"updated"`

	// Joined for list views; not persisted.
	Username    string `json:"username,omitempty" db:"-"`
	ProgramName string `json:"program_name,omitempty" db:"-"`
}

type Certificate struct {
	ID            int64  `json:"id" db:"id"`
	UserID        int64  `json:"user_id" db:"user_id"`
	ProgramID     *int64 `json:"program_id,omitempty" db:"program_id"`
	Title         string `json:"title" db:"title"`
	CertificateID string `json:"certificate_id" db:"certificate_id"`
	IssuedDate    string `json:"issued_date" db:"issued_date"`
	PDFFile       string `json:"pdf_file,omitempty" db:"pdf_file"`
	Created       int64  `json:"created" db:"created"`

	// Joined for list views; not persisted.
	Username    string `json:"username,omitempty" db:"-"`
	ProgramName string `json:"program_name,omitempty" db:"-"`
}

type News struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Slug        string `json:"slug" db:"slug"`
	Image       string `json:"image,omitempty" db:"image"`
	Content     string `json:"content" db:"content"`
	IsPublished bool   `json:"is_published" db:"is_published"`
	PublishedAt *int64 `json:"published_at,omitempty" db:"published_at"`
	Created     int64  `json:"created" db:"created"`
	Updated     int64  `json:"updated" db:"updated"`
}

// SettingsID is the primary key of the only site_settings row.
const SettingsID int64 = 1

type SiteSettings struct {
	ID            int64  `json:"id" db:"id"`
	SiteName      string `json:"site_name" db:"site_name"`
	SiteLogo      string `json:"site_logo,omitempty" db:"site_logo"`
	SiteFavicon   string `json:"site_favicon,omitempty" db:"site_favicon"`
	Slogan        string `json:"slogan" db:"slogan"`
	AboutText     string `json:"about_text,omitempty" db:"about_text"`
	Phone         string `json:"phone,omitempty" db:"phone"`
	Email         string `json:"email,omitempty" db:"email"`
	Address       string `json:"address,omitempty" db:"address"`
	TelegramLink  string `json:"telegram_link,omitempty" db:"telegram_link"`
	InstagramLink string `json:"instagram_link,omitempty" db:"instagram_link"`
	YoutubeLink   string `json:"youtube_link,omitempty" db:"youtube_link"`
	MapEmbed      string `json:"map_embed,omitempty" db:"map_embed"`
	WorkingHours  string `json:"working_hours,omitempty" db:"working_hours"`
	Updated       int64  `json:"updated" db:"updated"`
}

// DefaultSiteSettings returns the values the singleton row is created with.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		ID:       SettingsID,
		SiteName: "Yoshlar innovatsiya markazi",
		Slogan:   "Kelajak texnologiyalari — yoshlar qo'lida",
	}
}
