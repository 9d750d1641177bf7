package plan

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their serialized names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidatePhase checks the fields a phase form requires.
func ValidatePhase(ph Phase) error {
	return describe(validate.Struct(ph))
}

// ValidateTask checks the fields a task form requires.
func ValidateTask(t Task) error {
	return describe(validate.Struct(t))
}

// ValidateState checks the dates and status of a runtime state snapshot.
func ValidateState(s TaskState) error {
	if s.Status != "" && !s.Status.Valid() {
		return fmt.Errorf("invalid status %q", s.Status)
	}
	for _, d := range []struct{ name, value string }{
		{"scheduleDate", s.ScheduleDate},
		{"scheduleEndDate", s.ScheduleEndDate},
		{"completedDate", s.CompletedDate},
	} {
		if d.value == "" {
			continue
		}
		if _, err := ParseDate(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	return nil
}

// describe turns validator errors into one readable message per field.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a YYYY-MM-DD date", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
