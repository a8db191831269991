package note

// Note is owned by another service; this one only reads the owner reference.
type Note struct {
	ID     string
	UserID string // UserID references the owning user
	Title  string
}
