// Package news holds the article and digest types shared by the feed,
// summarizer and delivery layers.
package news

import (
	"strings"
	"time"
)

// Article is a single feed entry handed to the summarizer.
type Article struct {
	Title     string
	Summary   string // raw description, may contain markup; empty when the feed has none
	Link      string
	Published time.Time
	Source    string // "primary" or "backup"
}

// Language is a locale string such as "zh", "zh-Hant" or "en".
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"
)

// IsChinese reports whether the code has the "zh" prefix.
func (l Language) IsChinese() bool {
	return strings.HasPrefix(strings.ToLower(string(l)), "zh")
}

// EntityCategory is one of the fixed entity buckets.
type EntityCategory string

const (
	CategoryPerson       EntityCategory = "PERSON"
	CategoryOrganization EntityCategory = "ORGANIZATION"
	CategoryLocation     EntityCategory = "LOCATION"
	CategoryEvent        EntityCategory = "EVENT"
	CategoryWorkOfArt    EntityCategory = "WORK_OF_ART"
	CategoryConsumerGood EntityCategory = "CONSUMER_GOOD"
	CategoryOther        EntityCategory = "OTHER"
)

// Categories lists the entity categories in display priority order.
var Categories = []EntityCategory{
	CategoryPerson,
	CategoryOrganization,
	CategoryLocation,
	CategoryEvent,
	CategoryWorkOfArt,
	CategoryConsumerGood,
	CategoryOther,
}

// ParseCategory maps a type name onto a known category.
func ParseCategory(name string) (EntityCategory, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, c := range Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// EntityMap groups entity names by category. Empty categories are omitted.
type EntityMap map[EntityCategory][]string

// ScoredEntity is an entity reported by a classical NL service.
type ScoredEntity struct {
	Name     string
	Type     string
	Salience float64
}

// SummaryResult is the pipeline output handed to the messaging layer.
type SummaryResult struct {
	Title    string
	Summary  string
	Entities EntityMap
	Language Language
	Link     string
	// Degraded marks a fallback result built after a pipeline failure.
	Degraded bool
}
