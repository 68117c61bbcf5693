package security

import (
	"regexp"
	"strings"
)

// Strength reports how a candidate password scored against the signup policy.
// Score runs 0-5 and Feedback carries user-facing hints for the weak spots.
type Strength struct {
	Valid    bool
	Score    int
	Feedback []string
}

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
	repeatRe  = regexp.MustCompile(`(.)\1{2,}`)

	commonPrefixes = []string{"123456", "password", "qwerty", "abc123", "111111", "letmein"}
)

// CheckStrength scores a password against length, character class and common
// pattern rules. A password passes when it meets the length floor and at least
// three of the remaining criteria survive the penalties.
func CheckStrength(password string) Strength {
	var feedback []string
	score := 0

	if len(password) < 8 {
		feedback = append(feedback, "Password must be at least 8 characters long")
		return Strength{Valid: false, Score: 0, Feedback: feedback}
	}
	score++

	if !upperRe.MatchString(password) {
		feedback = append(feedback, "Add at least one uppercase letter")
	} else {
		score++
	}

	if !lowerRe.MatchString(password) {
		feedback = append(feedback, "Add at least one lowercase letter")
	} else {
		score++
	}

	if !digitRe.MatchString(password) {
		feedback = append(feedback, "Add at least one number")
	} else {
		score++
	}

	if !specialRe.MatchString(password) {
		feedback = append(feedback, "Add at least one special character (!@#$%^&* etc.)")
	} else {
		score++
	}

	lowered := strings.ToLower(password)
	for _, prefix := range commonPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			feedback = append(feedback, "Avoid common password patterns")
			score -= 2
			if score < 0 {
				score = 0
			}
			break
		}
	}

	if repeatRe.MatchString(password) {
		feedback = append(feedback, "Avoid repeating characters")
		if score > 0 {
			score--
		}
	}

	valid := score >= 3

	if valid && len(feedback) == 0 {
		feedback = append(feedback, "Strong password!")
	}

	return Strength{Valid: valid, Score: score, Feedback: feedback}
}

// StrengthLabel maps a score to the label shown next to the strength meter.
func StrengthLabel(score int) string {
	switch score {
	case 0, 1:
		return "Weak"
	case 2:
		return "Fair"
	case 3:
		return "Good"
	case 4, 5:
		return "Strong"
	default:
		return "Unknown"
	}
}
