// Package forms binds submitted request values onto form structs, validates
// them and copies the cleaned values onto domain records.
package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"

	"github.com/gorilla/schema"

	"github.com/garnizeh/innohub/internal/storage"
	"github.com/garnizeh/innohub/pkg/apperr"
)

const defaultMaxMemory = 8 << 20

// Binder decodes request values into form structs.
//
// Form fields use the `form` tag for their submitted name. File inputs are
// declared with `upload:"<field>,<category>"` on a string field; the stored
// path is written to that field when a file was submitted. Upload fields are
// tagged `form:"-"` so only Bind ever sets them.
type Binder struct {
	decoder   *schema.Decoder
	store     storage.Store
	maxMemory int64
	logger    *slog.Logger
}

func NewBinder(store storage.Store, maxMemory int64, logger *slog.Logger) *Binder {
	if maxMemory <= 0 {
		maxMemory = defaultMaxMemory
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := schema.NewDecoder()
	d.SetAliasTag("form")
	d.IgnoreUnknownKeys(true)
	d.ZeroEmpty(true)
	d.RegisterConverter(false, convertCheckbox)
	return &Binder{decoder: d, store: store, maxMemory: maxMemory, logger: logger}
}

// convertCheckbox accepts what browsers send for a ticked box.
func convertCheckbox(s string) reflect.Value {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return reflect.ValueOf(true)
	case "", "off", "false", "0", "no":
		return reflect.ValueOf(false)
	}
	return reflect.Value{}
}

// Bind decodes r into form, validates its struct tags and, when valid,
// stores uploaded files. Field problems are returned as *apperr.ValidationError.
// Files stored by a Bind that fails are removed again; after a successful Bind
// the caller owns them and must Discard the form if its record is not saved.
func (b *Binder) Bind(r *http.Request, form any) error {
	if err := b.parse(r); err != nil {
		return err
	}

	ve := apperr.NewValidationError()
	if err := b.decoder.Decode(form, r.PostForm); err != nil {
		var multi schema.MultiError
		if !errors.As(err, &multi) {
			return fmt.Errorf("decode form: %w", err)
		}
		for key := range multi {
			ve.Add(key, "invalid value")
		}
	}
	if err := validateStruct(form, ve); err != nil {
		return err
	}
	if !ve.Empty() {
		return ve
	}

	if err := b.storeUploads(r, form, ve); err != nil {
		b.Discard(r.Context(), form)
		return err
	}
	if !ve.Empty() {
		b.Discard(r.Context(), form)
		return ve
	}
	return nil
}

// Discard deletes the files Bind stored on form and clears their fields.
func (b *Binder) Discard(ctx context.Context, form any) {
	if b.store == nil {
		return
	}
	v, fields, err := uploadFields(form)
	if err != nil {
		return
	}
	// the request may already be gone; the files still have to go
	ctx = context.WithoutCancel(ctx)
	for _, f := range fields {
		fv := v.Field(f.index)
		stored := fv.String()
		if stored == "" {
			continue
		}
		if err := b.store.Delete(ctx, stored); err != nil {
			b.logger.Error("discard upload failed", slog.String("path", stored), slog.Any("err", err))
			continue
		}
		fv.SetString("")
	}
}

func (b *Binder) parse(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(b.maxMemory); err != nil {
			return apperr.Precondition("the upload could not be read")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return apperr.Precondition("the form could not be read")
	}
	return nil
}

type uploadField struct {
	index    int
	field    string
	category string
}

func uploadFields(form any) (reflect.Value, []uploadField, error) {
	v := reflect.ValueOf(form)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("bind: form must be a pointer to struct, got %T", form)
	}
	v = v.Elem()
	t := v.Type()

	var fields []uploadField
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("upload")
		if !ok {
			continue
		}
		field, category, _ := strings.Cut(tag, ",")
		fields = append(fields, uploadField{index: i, field: field, category: category})
	}
	return v, fields, nil
}

func (b *Binder) storeUploads(r *http.Request, form any, ve *apperr.ValidationError) error {
	v, fields, err := uploadFields(form)
	if err != nil {
		return err
	}
	for _, f := range fields {
		fh := formFile(r, f.field)
		if fh == nil {
			continue
		}
		if b.store == nil {
			return errors.New("bind: upload submitted but no file store configured")
		}

		path, err := b.save(r, fh, f.category)
		if err != nil {
			if storage.IsClientError(err) {
				ve.Add(f.field, uploadMessage(err))
				continue
			}
			return err
		}
		v.Field(f.index).SetString(path)
	}
	return nil
}

func (b *Binder) save(r *http.Request, fh *multipart.FileHeader, category string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return b.store.Save(r.Context(), category, fh.Filename, f)
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 || files[0].Size == 0 {
		return nil
	}
	return files[0]
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return "file is too large"
	case errors.Is(err, storage.ErrUnsupportedType):
		return "file type is not allowed here"
	default:
		return "file could not be stored"
	}
}
