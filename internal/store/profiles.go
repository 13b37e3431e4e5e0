package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
)

// GetProfile returns the user's entitlement record, or model.ErrNotFound.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var (
		p   model.Profile
		end int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, subscription_tier, subscription_end_date FROM profiles WHERE user_id = ?", userID,
	).Scan(&p.UserID, &p.SubscriptionTier, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile of %s: %w", userID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile of %s: %w", userID, err)
	}
	p.SubscriptionEndDate = time.Unix(0, end).UTC()
	return &p, nil
}

// SaveProfile creates or replaces the user's entitlement record.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p model.Profile) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO profiles (user_id, subscription_tier, subscription_end_date)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			subscription_tier = excluded.subscription_tier,
			subscription_end_date = excluded.subscription_end_date`,
		p.UserID, p.SubscriptionTier, p.SubscriptionEndDate.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving profile of %s: %w", p.UserID, err)
	}
	return nil
}

// GetAdvancedMatching returns the user's matching policy, or model.ErrNotFound.
func (s *SQLiteStore) GetAdvancedMatching(ctx context.Context, userID string) (*model.AdvancedMatchingConfig, error) {
	var (
		c         model.AdvancedMatchingConfig
		blacklist string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, chatgpt_prompt, blacklisted_companies FROM advanced_matching WHERE user_id = ?", userID,
	).Scan(&c.UserID, &c.Prompt, &blacklist)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("advanced matching of %s: %w", userID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting advanced matching of %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(blacklist), &c.BlacklistedCompanies); err != nil {
		return nil, fmt.Errorf("decoding blacklist of %s: %w", userID, err)
	}
	return &c, nil
}

// SaveAdvancedMatching creates or replaces the user's matching policy.
func (s *SQLiteStore) SaveAdvancedMatching(ctx context.Context, c model.AdvancedMatchingConfig) error {
	blacklist := c.BlacklistedCompanies
	if blacklist == nil {
		blacklist = []string{}
	}
	raw, err := json.Marshal(blacklist)
	if err != nil {
		return fmt.Errorf("encoding blacklist of %s: %w", c.UserID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO advanced_matching (user_id, chatgpt_prompt, blacklisted_companies)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			chatgpt_prompt = excluded.chatgpt_prompt,
			blacklisted_companies = excluded.blacklisted_companies`,
		c.UserID, c.Prompt, string(raw),
	)
	if err != nil {
		return fmt.Errorf("saving advanced matching of %s: %w", c.UserID, err)
	}
	return nil
}
