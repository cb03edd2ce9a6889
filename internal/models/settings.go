package models

import (
	"slices"
	"time"
)

type Announcement struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FestivalTheme struct {
	ActiveTheme string    `json:"activeTheme"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const ThemeNone = "none"

var FestivalThemes = []string{
	ThemeNone,
	"header-lights",
	"diwali",
	"holi",
	"navratri",
	"ganesh-chaturthi",
	"dussehra",
	"independence-day",
	"republic-day",
	"eid",
	"onam",
	"shivratri",
	"raksha-bandhan",
	"pongal",
	"makar-sankranti",
}

func IsFestivalTheme(theme string) bool {
	return slices.Contains(FestivalThemes, theme)
}

type StoreSettings struct {
	Announcement  Announcement  `json:"announcement"`
	FestivalTheme FestivalTheme `json:"festivalTheme"`
}
