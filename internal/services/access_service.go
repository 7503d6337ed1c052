package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fluencyjet/sentence-master/internal/models"
)

// AccessPolicy holds the free-tier rules read from configuration.
type AccessPolicy struct {
	FreeBeginnerMax         int
	FreeIntermediateLessons []int
	PaywallURL              string
}

// AccessDecision is the outcome of one access check. Denials carry enough
// to render an upsell screen.
type AccessDecision struct {
	Allowed       bool
	Track         string
	Message       string
	FreeLessons   interface{}
	SuggestedPlan string
	RedirectURL   string
	From          string
}

// AccessResolver decides whether a user may open a lesson. It holds no
// mutable state and never touches the database.
type AccessResolver struct {
	policy           AccessPolicy
	freeIntermediate map[int]bool
}

func NewAccessResolver(policy AccessPolicy) *AccessResolver {
	if policy.PaywallURL == "" {
		policy.PaywallURL = "/paywall"
	}
	free := make(map[int]bool, len(policy.FreeIntermediateLessons))
	for _, n := range policy.FreeIntermediateLessons {
		free[n] = true
	}
	return &AccessResolver{policy: policy, freeIntermediate: free}
}

// NormalizeTrack maps "beginner", "Beginner", "BEGINNER" and friends onto the
// canonical track name. Unknown values return "".
func NormalizeTrack(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BEGINNER", "BASIC", "EASY":
		return models.TrackBeginner
	case "INTERMEDIATE", "MEDIUM":
		return models.TrackIntermediate
	}
	return ""
}

// HasUnconditionalAccess reports whether the user bypasses every paywall.
func HasUnconditionalAccess(user *models.User) bool {
	if user.HasAccess {
		return true
	}
	for _, v := range []string{user.Plan, user.TierLevel} {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case models.PlanPro, models.PlanAll, models.PlanPaid:
			return true
		}
	}
	return false
}

// planTrack returns the track a track-scoped paid plan covers, or "".
func planTrack(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case models.PlanBeginner:
		return models.TrackBeginner
	case models.PlanIntermediate:
		return models.TrackIntermediate
	}
	return ""
}

// UserTrack is the user's placement, falling back to the requested track and
// then to BEGINNER.
func UserTrack(user *models.User, requested string) string {
	if t := NormalizeTrack(user.Placement); t != "" {
		return t
	}
	if t := NormalizeTrack(requested); t != "" {
		return t
	}
	return models.TrackBeginner
}

// Resolve runs the tier rules for one lesson request. Every rule is checked
// against the content track, the requested difficulty or else the user's
// track, and Decision.Track is the track the content must be served from.
func (r *AccessResolver) Resolve(user *models.User, lessonNumber int, requestedTrack string) AccessDecision {
	contentTrack := NormalizeTrack(requestedTrack)
	if contentTrack == "" {
		contentTrack = UserTrack(user, requestedTrack)
	}

	if HasUnconditionalAccess(user) {
		return AccessDecision{Allowed: true, Track: contentTrack}
	}

	if own := planTrack(user.Plan); own != "" {
		if contentTrack == own {
			return AccessDecision{Allowed: true, Track: contentTrack}
		}
		return r.deny(contentTrack, lessonNumber, models.PlanPro,
			fmt.Sprintf("Your %s plan does not include %s lessons", strings.ToLower(user.Plan), strings.ToLower(contentTrack)))
	}

	if r.freeAllows(contentTrack, lessonNumber) {
		return AccessDecision{Allowed: true, Track: contentTrack}
	}

	suggested := models.PlanBeginner
	if contentTrack == models.TrackIntermediate {
		suggested = models.PlanIntermediate
	}
	return r.deny(contentTrack, lessonNumber, suggested,
		fmt.Sprintf("Lesson %d is not part of the free %s lessons", lessonNumber, strings.ToLower(contentTrack)))
}

func (r *AccessResolver) freeAllows(track string, lessonNumber int) bool {
	if track == models.TrackIntermediate {
		return r.freeIntermediate[lessonNumber]
	}
	return lessonNumber >= 1 && lessonNumber <= r.policy.FreeBeginnerMax
}

// FreeLessons describes the free allowance of a track: the inclusive maximum
// for BEGINNER, the explicit lesson list for INTERMEDIATE.
func (r *AccessResolver) FreeLessons(track string) interface{} {
	if track == models.TrackIntermediate {
		lessons := make([]int, len(r.policy.FreeIntermediateLessons))
		copy(lessons, r.policy.FreeIntermediateLessons)
		return lessons
	}
	return r.policy.FreeBeginnerMax
}

func (r *AccessResolver) deny(track string, lessonNumber int, plan, message string) AccessDecision {
	from := "lesson-" + strconv.Itoa(lessonNumber)
	q := url.Values{}
	q.Set("plan", plan)
	q.Set("from", from)

	return AccessDecision{
		Allowed:       false,
		Track:         track,
		Message:       message,
		FreeLessons:   r.FreeLessons(track),
		SuggestedPlan: plan,
		RedirectURL:   r.policy.PaywallURL + "?" + q.Encode(),
		From:          from,
	}
}
