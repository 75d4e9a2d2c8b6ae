package domain

import (
	"time"
)

// OnboardingDraft is the auto-saved, partial state of the onboarding
// wizard. One per user id; saves merge into it, finalize deletes it.
type OnboardingDraft struct {
	UserID      string
	Data        map[string]interface{}
	LastStep    int // explicit wizard step when the client reports one, 0 otherwise
	LastUpdated time.Time
	Version     int64
}

// FilledKeys counts non-null top-level answers in the draft.
func (d *OnboardingDraft) FilledKeys() int {
	n := 0
	for _, v := range d.Data {
		if v != nil {
			n++
		}
	}
	return n
}

// OnboardingData is the permanent snapshot written by finalize.
// Re-finalizing overwrites it; it is never appended to.
type OnboardingData struct {
	UserID      string
	Data        map[string]interface{}
	CompletedAt time.Time
	Version     int64
}
