package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Provider identifiers.
const (
	ProviderSlack          = "slack"
	ProviderNotion         = "notion"
	ProviderGoogleCalendar = "google_calendar"
	ProviderFeed           = "feed"
	ProviderReadwise       = "readwise"
	ProviderLinear         = "linear"
	ProviderGitHub         = "github"
	ProviderJira           = "jira"
	ProviderGmail          = "gmail"
	ProviderStripe         = "stripe"
	ProviderTodoist        = "todoist"
	ProviderWebClipper     = "web_clipper"
)

var providerNames = map[string]string{
	ProviderSlack:          "Slack",
	ProviderNotion:         "Notion",
	ProviderGoogleCalendar: "Google Calendar",
	ProviderFeed:           "RSS",
	ProviderReadwise:       "Readwise",
	ProviderLinear:         "Linear",
	ProviderGitHub:         "GitHub",
	ProviderJira:           "Jira",
	ProviderGmail:          "Gmail",
	ProviderStripe:         "Stripe",
	ProviderTodoist:        "Todoist",
	ProviderWebClipper:     "Web Clipper",
}

// ProviderDisplayName returns a human readable provider name.
func ProviderDisplayName(provider string) string {
	if name, ok := providerNames[provider]; ok {
		return name
	}
	if provider == "" {
		return "Unknown"
	}
	r, size := utf8.DecodeRuneInString(provider)
	return string(unicode.ToUpper(r)) + provider[size:]
}

// providerDefaultTypes is used when an item carries no recognizable type.
var providerDefaultTypes = map[string]ItemType{
	ProviderSlack:          ItemTypeMessage,
	ProviderNotion:         ItemTypeDocument,
	ProviderGoogleCalendar: ItemTypeMeeting,
	ProviderFeed:           ItemTypeArticle,
	ProviderReadwise:       ItemTypeHighlight,
	ProviderLinear:         ItemTypeIssue,
	ProviderGitHub:         ItemTypeIssue,
	ProviderJira:           ItemTypeIssue,
	ProviderGmail:          ItemTypeEmail,
	ProviderStripe:         ItemTypeDocument,
	ProviderTodoist:        ItemTypeTask,
	ProviderWebClipper:     ItemTypeClip,
}

// itemTypeAliases maps provider vocabulary onto the normalized item types.
var itemTypeAliases = map[string]ItemType{
	"note":         ItemTypeNote,
	"notes":        ItemTypeNote,
	"memo":         ItemTypeNote,
	"highlight":    ItemTypeHighlight,
	"quote":        ItemTypeHighlight,
	"annotation":   ItemTypeHighlight,
	"meeting":      ItemTypeMeeting,
	"event":        ItemTypeMeeting,
	"calendar":     ItemTypeMeeting,
	"call":         ItemTypeMeeting,
	"task":         ItemTypeTask,
	"todo":         ItemTypeTask,
	"to_do":        ItemTypeTask,
	"action_item":  ItemTypeTask,
	"message":      ItemTypeMessage,
	"thread":       ItemTypeMessage,
	"chat":         ItemTypeMessage,
	"dm":           ItemTypeMessage,
	"article":      ItemTypeArticle,
	"post":         ItemTypeArticle,
	"entry":        ItemTypeArticle,
	"bookmark":     ItemTypeBookmark,
	"link":         ItemTypeBookmark,
	"document":     ItemTypeDocument,
	"doc":          ItemTypeDocument,
	"page":         ItemTypeDocument,
	"file":         ItemTypeDocument,
	"invoice":      ItemTypeDocument,
	"charge":       ItemTypeDocument,
	"payment":      ItemTypeDocument,
	"subscription": ItemTypeDocument,
	"email":        ItemTypeEmail,
	"mail":         ItemTypeEmail,
	"comment":      ItemTypeComment,
	"reply":        ItemTypeComment,
	"issue":        ItemTypeIssue,
	"ticket":       ItemTypeIssue,
	"bug":          ItemTypeIssue,
	"pull_request": ItemTypeIssue,
	"clip":         ItemTypeClip,
	"clipping":     ItemTypeClip,
	"web_clip":     ItemTypeClip,
}

// ResolveItemType maps a provider type label to an ItemType, falling back to
// the provider default and finally to document.
func ResolveItemType(provider, raw string) ItemType {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if t, ok := itemTypeAliases[key]; ok {
		return t
	}
	if t, ok := providerDefaultTypes[provider]; ok {
		return t
	}
	return ItemTypeDocument
}

var captureTypes = map[ItemType]CaptureType{
	ItemTypeNote:      CaptureTypeNote,
	ItemTypeHighlight: CaptureTypeNote,
	ItemTypeMeeting:   CaptureTypeNote,
	ItemTypeMessage:   CaptureTypeNote,
	ItemTypeDocument:  CaptureTypeNote,
	ItemTypeEmail:     CaptureTypeNote,
	ItemTypeComment:   CaptureTypeNote,
	ItemTypeTask:      CaptureTypeTask,
	ItemTypeIssue:     CaptureTypeTask,
	ItemTypeArticle:   CaptureTypeResource,
	ItemTypeBookmark:  CaptureTypeResource,
	ItemTypeClip:      CaptureTypeResource,
}

// CaptureTypeFor returns the capture type derived from an item type.
func CaptureTypeFor(t ItemType) CaptureType {
	if c, ok := captureTypes[t]; ok {
		return c
	}
	return CaptureTypeNote
}

var memoryCategories = map[ItemType]string{
	ItemTypeMeeting:   "meetings",
	ItemTypeHighlight: "reading_highlights",
	ItemTypeTask:      "tasks",
	ItemTypeIssue:     "tasks",
	ItemTypeBookmark:  "resources",
	ItemTypeArticle:   "resources",
}

// MemoryCategoryFor returns the memory category for an item type.
func MemoryCategoryFor(t ItemType) string {
	if c, ok := memoryCategories[t]; ok {
		return c
	}
	return "general"
}

// ParsePriority maps a free-form priority label onto low/medium/high.
// Unknown labels report false.
func ParsePriority(raw string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "p3", "p4", "minor", "4":
		return PriorityLow, true
	case "medium", "normal", "p2", "3":
		return PriorityMedium, true
	case "high", "urgent", "critical", "p0", "p1", "major", "1", "2":
		return PriorityHigh, true
	}
	return "", false
}
