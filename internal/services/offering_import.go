package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/investorportal/internal/models"
	"github.com/charlesng35/investorportal/pkg/slug"
)

// OfferingImport is a catalogue entry that names investor types instead of ids.
type OfferingImport struct {
	CreateOfferingInput
	InvestorTypes []string
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created int
	Skipped int
}

// Import creates catalogue entries whose slug is not taken yet, so the same
// file can be applied on every deploy. Entries without a slug are keyed by the
// slug of their title.
func (s *OfferingService) Import(ctx context.Context, entries []OfferingImport) (ImportResult, error) {
	ctx = ensureContext(ctx)

	types, err := s.ListInvestorTypes(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	typeIDs := make(map[string]uint, len(types))
	for _, it := range types {
		typeIDs[strings.ToLower(it.Name)] = it.ID
	}

	var result ImportResult
	for i, entry := range entries {
		input := entry.CreateOfferingInput
		input.Slug = strings.TrimSpace(input.Slug)
		if input.Slug == "" {
			input.Slug = slug.Make(input.Title)
		}
		if input.Slug == "" {
			return result, fmt.Errorf("offering import: entry %d: title is required", i+1)
		}

		for _, name := range entry.InvestorTypes {
			id, ok := typeIDs[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return result, fmt.Errorf("offering import: %s: unknown investor type %q", input.Slug, name)
			}
			input.InvestorTypeIDs = append(input.InvestorTypeIDs, id)
		}

		var existing int64
		if err := s.db.WithContext(ctx).Model(&models.Offering{}).Where("slug = ?", input.Slug).Count(&existing).Error; err != nil {
			return result, fmt.Errorf("offering import: %s: %w", input.Slug, err)
		}
		if existing > 0 {
			result.Skipped++
			continue
		}

		if _, err := s.Create(ctx, input); err != nil {
			if errors.Is(err, ErrOfferingExists) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("offering import: %s: %w", input.Slug, err)
		}
		result.Created++
		s.log.Info("offering imported", zap.String("slug", input.Slug))
	}
	return result, nil
}
