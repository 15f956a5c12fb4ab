package models

// CategoryKey is the store identity of a category: the name itself.
func CategoryKey(name string) string { return name }
