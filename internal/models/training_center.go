package models

// TrainingCenter is the external institution submitting rotation requests.
type TrainingCenter struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	ContactName  string `db:"contact_name" json:"contactName"`
	ContactEmail string `db:"contact_email" json:"contactEmail"`
	ContactPhone string `db:"contact_phone" json:"contactPhone"`
}
