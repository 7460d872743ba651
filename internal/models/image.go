package models

// Image is an uploaded avatar. Path is the file name inside the upload directory.
type Image struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Path string `gorm:"size:255" json:"path"`
}
