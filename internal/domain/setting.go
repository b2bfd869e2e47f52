package domain

// Setting Model
type Setting struct {
	Key   string `gorm:"primaryKey" json:"key"` // Setting name
	Value string `json:"value"`                 // Setting value
}
