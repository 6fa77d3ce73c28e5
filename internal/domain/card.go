package domain

import "time"

// Card is a single vocabulary entry from the catalog.
type Card struct {
	ID            string `json:"id"`
	SetID         string `json:"set_id"`
	Term          string `json:"term"`
	Definition    string `json:"definition"`
	Example       string `json:"example,omitempty"`
	Pronunciation string `json:"pronunciation,omitempty"`
}

// Set is an ordered deck of cards.
type Set struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Video is one lesson inside a topic category.
type Video struct {
	Title     string `json:"title"`
	Desc      string `json:"desc"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration"`
	Level     string `json:"level"`
}

// Topic groups videos under a named category.
type Topic struct {
	Name   string  `json:"name"`
	Icon   string  `json:"icon"`
	Videos []Video `json:"videos"`
}

// ScheduleEntry records when a user should next see a card.
// There is at most one entry per (UserID, CardID).
type ScheduleEntry struct {
	ID           int64
	UserID       int64
	CardID       string
	NextReviewAt time.Time
}

// StudyPosition is a user's zero-based offset into a set.
type StudyPosition struct {
	UserID       int64
	SetID        string
	CurrentIndex int
}
