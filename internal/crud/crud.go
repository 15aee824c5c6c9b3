// Package crud is the list/create/edit/delete engine shared by the admin and
// student consoles. A Resource binds one record type to its store, its form
// and its messages; entity rules are added through the hook functions.
package crud

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/innohub/internal/forms"
	"github.com/garnizeh/innohub/internal/session"
	"github.com/garnizeh/innohub/internal/web"
	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

// Form validates submitted values and copies them onto a record.
type Form[T any] interface {
	// Fill loads rec into the form for display.
	Fill(rec *T)
	// Clean checks rules that need more than one field or a lookup, then
	// copies the values onto rec. Field problems are *apperr.ValidationError.
	Clean(ctx context.Context, rec *T) error
}

type Messages struct {
	Created string
	Updated string
	Deleted string
	Toggled string
}

type Resource[T any, F Form[T]] struct {
	// View is the prefix of the view names, e.g. "dashboard/laboratories".
	View    string
	Store   repository.Store[T]
	Binder  *forms.Binder
	NewForm func() F
	// New returns a record with default values. Nil means the zero value.
	New      func() *T
	ListURL  string
	Messages Messages

	// Filter adjusts the list filter parsed from the query string.
	Filter func(r *http.Request, f models.Filter) models.Filter
	// Scope hides records from the caller; hidden records are not found.
	Scope func(r *http.Request, rec *T) bool
	// BeforeSave runs after the form is cleaned and before persisting.
	BeforeSave func(r *http.Request, rec *T) error
	// BeforeDelete may veto a deletion with a precondition error.
	BeforeDelete func(r *http.Request, rec *T) error
	// Extra adds choices and other context to list and form views.
	Extra func(r *http.Request) (web.Map, error)
}

func (res *Resource[T, F]) newRecord() *T {
	if res.New != nil {
		return res.New()
	}
	return new(T)
}

func (res *Resource[T, F]) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.FilterFromQuery(q)
	if res.Filter != nil {
		f = res.Filter(r, f)
	}

	items, err := res.Store.List(r.Context(), f)
	if err != nil {
		web.Fail(w, r, err, res.ListURL)
		return
	}
	if res.Scope != nil {
		kept := items[:0]
		for i := range items {
			if res.Scope(r, &items[i]) {
				kept = append(kept, items[i])
			}
		}
		items = kept
	}
	if items == nil {
		items = []T{}
	}

	res.render(w, r, http.StatusOK, res.View+"/list", web.Map{
		"items":  items,
		"search": f.Search,
		"query":  q,
	})
}

// Detail renders one record.
func (res *Resource[T, F]) Detail(w http.ResponseWriter, r *http.Request) {
	rec, ok := res.load(w, r)
	if !ok {
		return
	}
	res.render(w, r, http.StatusOK, res.View+"/detail", web.Map{"object": rec})
}

func (res *Resource[T, F]) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		form := res.NewForm()
		form.Fill(res.newRecord())
		res.render(w, r, http.StatusOK, res.View+"/form", web.Map{"form": form})
		return
	}
	res.submit(w, r, res.newRecord(), false, res.Messages.Created)
}

func (res *Resource[T, F]) Edit(w http.ResponseWriter, r *http.Request) {
	rec, ok := res.load(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		form := res.NewForm()
		form.Fill(rec)
		res.render(w, r, http.StatusOK, res.View+"/form", web.Map{"form": form, "object": rec})
		return
	}
	res.submit(w, r, rec, true, res.Messages.Updated)
}

func (res *Resource[T, F]) submit(w http.ResponseWriter, r *http.Request, rec *T, editing bool, msg string) {
	form := res.NewForm()
	data := web.Map{"form": form}
	if editing {
		data["object"] = rec
	}

	err := res.Binder.Bind(r, form)
	if err == nil {
		err = form.Clean(r.Context(), rec)
	}
	if err == nil && res.BeforeSave != nil {
		err = res.BeforeSave(r, rec)
	}
	if err == nil {
		err = res.Store.Save(r.Context(), rec)
	}
	if err != nil {
		res.Binder.Discard(r.Context(), form)
		if ve, ok := apperr.IsValidation(err); ok {
			data["errors"] = ve.Fields
			res.render(w, r, http.StatusUnprocessableEntity, res.View+"/form", data)
			return
		}
		web.Fail(w, r, err, res.ListURL)
		return
	}

	web.Redirect(w, r, res.ListURL, session.LevelSuccess, msg)
}

// Delete removes the record on POST. Other methods only redirect back so a
// followed link never deletes anything.
func (res *Resource[T, F]) Delete(w http.ResponseWriter, r *http.Request) {
	rec, ok := res.load(w, r)
	if !ok {
		return
	}
	if res.BeforeDelete != nil {
		if err := res.BeforeDelete(r, rec); err != nil {
			web.Fail(w, r, err, res.ListURL)
			return
		}
	}
	if r.Method != http.MethodPost {
		web.Redirect(w, r, res.ListURL, "", "")
		return
	}

	id, _ := web.PathID(mux.Vars(r)["id"])
	if err := res.Store.Delete(r.Context(), id); err != nil {
		web.Fail(w, r, err, res.ListURL)
		return
	}
	web.Redirect(w, r, res.ListURL, session.LevelSuccess, res.Messages.Deleted)
}

// ToggleActive flips is_active for stores that support it.
func (res *Resource[T, F]) ToggleActive(w http.ResponseWriter, r *http.Request) {
	toggler, ok := any(res.Store).(repository.ActiveToggler)
	if !ok {
		web.NotFound(w, r)
		return
	}
	if _, ok := res.load(w, r); !ok {
		return
	}

	id, _ := web.PathID(mux.Vars(r)["id"])
	if _, err := toggler.ToggleActive(r.Context(), id); err != nil {
		web.Fail(w, r, err, res.ListURL)
		return
	}
	web.Redirect(w, r, res.ListURL, session.LevelSuccess, res.Messages.Toggled)
}

func (res *Resource[T, F]) render(w http.ResponseWriter, r *http.Request, status int, name string, data web.Map) {
	if res.Extra != nil {
		extra, err := res.Extra(r)
		if err != nil {
			web.Fail(w, r, err, res.ListURL)
			return
		}
		for k, v := range extra {
			if _, taken := data[k]; !taken {
				data[k] = v
			}
		}
	}
	web.View(w, r, status, name, data)
}

// Load returns the record named by the {id} path variable, writing a
// not-found response when it is missing or out of scope.
func (res *Resource[T, F]) Load(w http.ResponseWriter, r *http.Request) (*T, bool) {
	return res.load(w, r)
}

func (res *Resource[T, F]) load(w http.ResponseWriter, r *http.Request) (*T, bool) {
	id, ok := web.PathID(mux.Vars(r)["id"])
	if !ok {
		web.NotFound(w, r)
		return nil, false
	}
	rec, err := res.Store.Get(r.Context(), id)
	if err != nil {
		web.Fail(w, r, err, res.ListURL)
		return nil, false
	}
	if rec == nil || (res.Scope != nil && !res.Scope(r, rec)) {
		web.NotFound(w, r)
		return nil, false
	}
	return rec, true
}
