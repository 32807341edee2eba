package domain

// Category is one entry in the category table (id -> display name),
// loaded from a config artifact at startup (spec §6).
type Category struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
}
