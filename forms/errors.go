package forms

// Errors maps a field name to the messages it failed validation with. An
// empty map means the form is valid.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// CollectionErrors maps a form name to that form's field errors. Only
// invalid forms appear.
type CollectionErrors map[string]Errors
