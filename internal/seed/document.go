// Package seed loads demo content into an empty or partially filled
// database. Rows are matched by natural key and never overwritten, so running
// it again creates nothing new.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
	"gopkg.in/yaml.v3"

	dbfs "github.com/garnizeh/innohub/db"
)

const (
	defaultDocument = "seed/demo.yaml"
	schemaFile      = "seed/seed.schema.json"
)

// Document is a seed file. Dates are day offsets from the time of seeding.
type Document struct {
	Settings        *Settings    `yaml:"settings"`
	DefaultPassword string       `yaml:"default_password"`
	Users           []User       `yaml:"users"`
	Laboratories    []Laboratory `yaml:"laboratories"`
	Programs        []Program    `yaml:"programs"`
	Events          []Event      `yaml:"events"`
	Projects        []Project    `yaml:"projects"`
	Partners        []Partner    `yaml:"partners"`
	News            []News       `yaml:"news"`
}

type Settings struct {
	SiteName      string `yaml:"site_name"`
	Slogan        string `yaml:"slogan"`
	AboutText     string `yaml:"about_text"`
	Phone         string `yaml:"phone"`
	Email         string `yaml:"email"`
	Address       string `yaml:"address"`
	TelegramLink  string `yaml:"telegram_link"`
	InstagramLink string `yaml:"instagram_link"`
	YoutubeLink   string `yaml:"youtube_link"`
	MapEmbed      string `yaml:"map_embed"`
	WorkingHours  string `yaml:"working_hours"`
}

type User struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
}

type Laboratory struct {
	Name        string `yaml:"name"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
	Order       int    `yaml:"order"`
}

type Program struct {
	Name        string `yaml:"name"`
	Laboratory  string `yaml:"laboratory"`
	Description string `yaml:"description"`
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	AgeMin      int    `yaml:"age_min"`
	AgeMax      int    `yaml:"age_max"`
	Duration    string `yaml:"duration"`
	StartInDays *int   `yaml:"start_in_days"`
	EndInDays   *int   `yaml:"end_in_days"`
}

type Event struct {
	Title       string `yaml:"title"`
	EventType   string `yaml:"event_type"`
	Description string `yaml:"description"`
	InDays      int    `yaml:"in_days"`
	Location    string `yaml:"location"`
}

type Project struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	Stage       string `yaml:"stage"`
	TeamMembers string `yaml:"team_members"`
	IsApproved  *bool  `yaml:"is_approved"`
}

type Partner struct {
	Name    string `yaml:"name"`
	Website string `yaml:"website"`
	Order   int    `yaml:"order"`
}

type News struct {
	Title            string `yaml:"title"`
	Slug             string `yaml:"slug"`
	Content          string `yaml:"content"`
	PublishedDaysAgo int    `yaml:"published_days_ago"`
	Draft            bool   `yaml:"draft"`
}

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid seed document: " + strings.Join(e.Problems, "; ")
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// compiledSchema parses the embedded schema once.
func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := dbfs.SeedFiles.ReadFile(schemaFile)
		if err != nil {
			schemaErr = fmt.Errorf("read seed schema: %w", err)
			return
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(raw, rs); err != nil {
			schemaErr = fmt.Errorf("compile seed schema: %w", err)
			return
		}
		schema = rs
	})
	return schema, schemaErr
}

// DefaultDocument returns the embedded demo content.
func DefaultDocument() ([]byte, error) {
	return dbfs.SeedFiles.ReadFile(defaultDocument)
}

// Parse decodes a YAML seed document and checks it against the seed schema.
func Parse(ctx context.Context, data []byte) (*Document, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	if generic == nil {
		generic = map[string]any{}
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("convert seed document: %w", err)
	}

	rs, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	keyErrs, err := rs.ValidateBytes(ctx, asJSON)
	if err != nil {
		return nil, fmt.Errorf("validate seed document: %w", err)
	}
	if len(keyErrs) > 0 {
		ve := &ValidationError{}
		for _, ke := range keyErrs {
			path := ke.PropertyPath
			if path == "" {
				path = "/"
			}
			ve.Problems = append(ve.Problems, path+": "+ke.Message)
		}
		return nil, ve
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed document: %w", err)
	}
	return &doc, nil
}
