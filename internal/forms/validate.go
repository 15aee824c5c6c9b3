package forms

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

// DateTimeLayout is the layout browsers submit for datetime-local inputs.
const DateTimeLayout = "2006-01-02T15:04"

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"

	dateTag  = "date"
	dateText = "{0} must be a date (YYYY-MM-DD)"

	dateTimeTag  = "datetime_local"
	dateTimeText = "{0} must be a date and time (YYYY-MM-DDTHH:MM)"

	slugTag   = "slug"
	slugText  = "{0} may only contain letters, numbers, underscores and hyphens"
	slugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	usernameTag   = "username"
	usernameText  = "{0} may only contain letters, numbers and @/./+/-/_ characters"
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
)

func init() {
	validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report errors under the submitted field name. Upload fields are not
	// decoded from values, so they carry their name in the json tag only.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(dateTag, layoutValidation(models.DateLayout))
	_ = validate.RegisterValidation(dateTimeTag, layoutValidation(DateTimeLayout))
	_ = validate.RegisterValidation(slugTag, regexValidation(slugRegex))
	_ = validate.RegisterValidation(usernameTag, regexValidation(usernameRegex))

	RegisterCustomTranslation(notBlankTag, notBlankText)
	RegisterCustomTranslation(dateTag, dateText)
	RegisterCustomTranslation(dateTimeTag, dateTimeText)
	RegisterCustomTranslation(slugTag, slugText)
	RegisterCustomTranslation(usernameTag, usernameText)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// layoutValidation accepts the empty string or a value parseable with layout.
func layoutValidation(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.Parse(layout, s)
		return err == nil
	}
}

func regexValidation(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || re.MatchString(s)
	}
}

// validateStruct runs the struct tags of form and collects translated messages into ve.
func validateStruct(form any, ve *apperr.ValidationError) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		ve.Add(fe.Field(), fe.Translate(translator))
	}
	return nil
}
