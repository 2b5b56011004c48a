package models

import "strings"

// ActivityCategory groups a free-form activity name by keyword.
func ActivityCategory(activity string) string {
	a := strings.ToLower(activity)

	switch {
	case containsAny(a, "workout", "exercise", "gym", "run", "fitness"):
		return "Fitness"
	case containsAny(a, "read", "book", "study", "learn"):
		return "Learning"
	case containsAny(a, "meditat", "mindful", "yoga", "wellness"):
		return "Wellness"
	case containsAny(a, "language", "spanish", "french", "coding", "skill"):
		return "Education"
	}
	return "General"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
