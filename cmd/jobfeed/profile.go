package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/model"
)

var (
	profileTier  string
	profileUntil string

	matchingPrompt    string
	matchingBlacklist []string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change the subscription profile",
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the subscription tier and end date",
	RunE:  runProfileSet,
}

var matchingCmd = &cobra.Command{
	Use:   "matching",
	Short: "Show or change the advanced matching policy",
	RunE:  runMatchingShow,
}

var matchingSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the matching prompt and company blacklist",
	Long:  "Replaces the policy. Flags left out keep their current value.",
	RunE:  runMatchingSet,
}

func init() {
	profileSetCmd.Flags().StringVar(&profileTier, "tier", model.TierPro, "subscription tier")
	profileSetCmd.Flags().StringVar(&profileUntil, "until", "", "subscription end, YYYY-MM-DD or RFC 3339")
	_ = profileSetCmd.MarkFlagRequired("until")
	profileCmd.AddCommand(profileSetCmd)

	matchingSetCmd.Flags().StringVar(&matchingPrompt, "prompt", "", "free-text description of jobs to hide")
	matchingSetCmd.Flags().StringSliceVar(&matchingBlacklist, "blacklist", nil, "company names to hide, comma separated")
	matchingCmd.AddCommand(matchingSetCmd)

	rootCmd.AddCommand(profileCmd, matchingCmd)
}

func parseUntil(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --until %q: want YYYY-MM-DD or RFC 3339", s)
	}
	// A date means the whole day.
	return t.Add(24*time.Hour - time.Nanosecond), nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	a := mustOpenApp(setupLogger(debug))
	defer a.Close()

	p, err := a.store.GetProfile(context.Background(), a.sess.UserID)
	if errors.Is(err, model.ErrNotFound) {
		fmt.Println("no profile: advanced matching is off")
		return nil
	}
	if err != nil {
		userError("Failed to load profile", err)
		os.Exit(1)
	}
	fmt.Printf("tier: %s\nuntil: %s\nadvanced matching: %v\n",
		p.SubscriptionTier, p.SubscriptionEndDate.Format(time.RFC3339), p.HasAdvancedMatching(time.Now()))
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	until, err := parseUntil(profileUntil)
	if err != nil {
		return err
	}

	a := mustOpenApp(setupLogger(debug))
	defer a.Close()

	p := model.Profile{UserID: a.sess.UserID, SubscriptionTier: strings.TrimSpace(profileTier), SubscriptionEndDate: until}
	if err := a.store.SaveProfile(context.Background(), p); err != nil {
		userError("Failed to save profile", err)
		os.Exit(1)
	}
	a.logger.Info("profile saved", "user_id", p.UserID, "tier", p.SubscriptionTier, "until", until.Format(time.RFC3339))
	return nil
}

func runMatchingShow(cmd *cobra.Command, args []string) error {
	a := mustOpenApp(setupLogger(debug))
	defer a.Close()

	c, err := a.store.GetAdvancedMatching(context.Background(), a.sess.UserID)
	if errors.Is(err, model.ErrNotFound) {
		fmt.Println("no advanced matching policy")
		return nil
	}
	if err != nil {
		userError("Failed to load advanced matching", err)
		os.Exit(1)
	}
	fmt.Printf("prompt: %s\nblacklist: %s\n", c.Prompt, strings.Join(c.BlacklistedCompanies, ", "))
	return nil
}

func runMatchingSet(cmd *cobra.Command, args []string) error {
	a := mustOpenApp(setupLogger(debug))
	defer a.Close()

	ctx := context.Background()
	c := model.AdvancedMatchingConfig{UserID: a.sess.UserID}
	current, err := a.store.GetAdvancedMatching(ctx, a.sess.UserID)
	switch {
	case err == nil:
		c = *current
	case !errors.Is(err, model.ErrNotFound):
		userError("Failed to load advanced matching", err)
		os.Exit(1)
	}
	if cmd.Flags().Changed("prompt") {
		c.Prompt = matchingPrompt
	}
	if cmd.Flags().Changed("blacklist") {
		c.BlacklistedCompanies = matchingBlacklist
	}

	if err := a.store.SaveAdvancedMatching(ctx, c); err != nil {
		userError("Failed to save advanced matching", err)
		os.Exit(1)
	}
	a.logger.Info("advanced matching saved", "user_id", c.UserID, "blacklist", len(c.BlacklistedCompanies))
	return nil
}
