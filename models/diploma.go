package models

// DiplomaTemplate describes a printable diploma layout owned by a user.
// The potentially large field layout payload is kept in object storage under
// FieldsKey, only the metadata lives in the document store.
type DiplomaTemplate struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Name      string `json:"name"`
	Index     int    `json:"index"`
	FieldsKey string `json:"fields_key,omitempty"`
}
