package model

import "time"

// Word is an entry in the word library
type Word struct {
	Word    string    `json:"word"`
	Image   string    `json:"image,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// ImageResult reports the outcome of resolving an image for a word
type ImageResult struct {
	Word    string `json:"word"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}
