package building

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("invalid building document")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the document is complete enough to load: every building
// has hours for all seven days, coordinates and rooms, and every class has a
// course, title, time and days.
func Validate(doc *Document) error {
	if doc == nil || doc.Buildings == nil {
		return fmt.Errorf("%w: missing 'buildings' key", ErrValidation)
	}
	for _, name := range doc.Names() {
		b := doc.Buildings[name]
		if b == nil {
			return fmt.Errorf("%w: building %q is empty", ErrValidation, name)
		}
		if err := validate.Struct(b); err != nil {
			return fmt.Errorf("%w: building %q: %v", ErrValidation, name, err)
		}
		var missing []string
		for _, day := range Weekdays {
			if _, ok := b.Hours[day]; !ok {
				missing = append(missing, day)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: building %q missing hours for days: %s", ErrValidation, name, strings.Join(missing, ", "))
		}
	}
	return nil
}
