package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"new", "applied", "archived", "excluded_by_advanced_matching"} {
		got, err := model.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q", s, got)
		}
	}

	for _, s := range []string{"", "NEW", "deleted"} {
		_, err := model.ParseStatus(s)
		if !errors.Is(err, model.ErrInvalidStatus) {
			t.Errorf("ParseStatus(%q) err = %v, want ErrInvalidStatus", s, err)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	cases := []struct {
		from, to model.JobStatus
		ok       bool
	}{
		{model.StatusNew, model.StatusApplied, true},
		{model.StatusNew, model.StatusArchived, true},
		{model.StatusApplied, model.StatusNew, true},
		{model.StatusArchived, model.StatusApplied, true},
		{model.StatusNew, model.StatusExcluded, false},
		{model.StatusExcluded, model.StatusNew, false},
		{model.StatusNew, model.StatusNew, false},
		{model.StatusApplied, model.StatusApplied, false},
		{model.JobStatus("bogus"), model.StatusNew, false},
	}
	for _, c := range cases {
		err := model.CheckTransition(c.from, c.to)
		if c.ok && err != nil {
			t.Errorf("CheckTransition(%s, %s) = %v, want nil", c.from, c.to, err)
		}
		if !c.ok && !errors.Is(err, model.ErrTransitionNotAllowed) {
			t.Errorf("CheckTransition(%s, %s) = %v, want ErrTransitionNotAllowed", c.from, c.to, err)
		}
	}
}

func TestProfile_HasAdvancedMatching(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		profile *model.Profile
		want    bool
	}{
		{"nil profile", nil, false},
		{"pro active", &model.Profile{SubscriptionTier: "pro", SubscriptionEndDate: now.Add(time.Hour)}, true},
		{"pro expired", &model.Profile{SubscriptionTier: "pro", SubscriptionEndDate: now.Add(-time.Hour)}, false},
		{"pro expiring now", &model.Profile{SubscriptionTier: "pro", SubscriptionEndDate: now}, false},
		{"basic active", &model.Profile{SubscriptionTier: "basic", SubscriptionEndDate: now.Add(time.Hour)}, false},
		{"free", &model.Profile{SubscriptionTier: "free"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.profile.HasAdvancedMatching(now); got != c.want {
				t.Errorf("HasAdvancedMatching() = %v, want %v", got, c.want)
			}
		})
	}
}
