package forms

import (
	"context"

	"github.com/garnizeh/innohub/pkg/models"
)

// StudentProjectForm is the subset of project fields an author may edit.
// Approval, visibility and authorship stay as they are.
type StudentProjectForm struct {
	Title       string `form:"title" json:"title" validate:"required,notblank,max=300"`
	Image       string `form:"-" json:"image" upload:"image,projects"`
	Description string `form:"description" json:"description"`
	Stage       string `form:"stage" json:"stage" validate:"required,oneof=idea prototype mvp"`
	TeamMembers string `form:"team_members" json:"team_members"`
}

func (f *StudentProjectForm) Fill(p *models.Project) {
	*f = StudentProjectForm{Title: p.Title, Image: p.Image, Description: p.Description, Stage: string(p.Stage), TeamMembers: p.TeamMembers}
}

func (f *StudentProjectForm) Clean(_ context.Context, p *models.Project) error {
	p.Title, p.Description, p.Stage, p.TeamMembers = f.Title, f.Description, models.Stage(f.Stage), f.TeamMembers
	keepUpload(&p.Image, f.Image)
	return nil
}

type ApplicationForm struct {
	Message string `form:"message" json:"message" validate:"max=2000"`
}
