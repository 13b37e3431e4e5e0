package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amishk599/jobfeed/internal/model"
)

// IncrementUsage adds one metered call to the user's cumulative LLM usage.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, inc model.UsageIncrement) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO chatgpt_usage (user_id, calls, cost, input_tokens, output_tokens)
		VALUES (?, 1, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			calls = calls + 1,
			cost = cost + excluded.cost,
			input_tokens = input_tokens + excluded.input_tokens,
			output_tokens = output_tokens + excluded.output_tokens`,
		inc.UserID, inc.Cost, inc.InputTokens, inc.OutputTokens,
	)
	if err != nil {
		return fmt.Errorf("counting usage of %s: %w", inc.UserID, err)
	}
	return nil
}

// GetUsage returns the user's cumulative LLM usage; zero when nothing was metered.
func (s *SQLiteStore) GetUsage(ctx context.Context, userID string) (model.Usage, error) {
	u := model.Usage{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		"SELECT calls, cost, input_tokens, output_tokens FROM chatgpt_usage WHERE user_id = ?", userID,
	).Scan(&u.Calls, &u.Cost, &u.InputTokens, &u.OutputTokens)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	if err != nil {
		return model.Usage{}, fmt.Errorf("getting usage of %s: %w", userID, err)
	}
	return u, nil
}
