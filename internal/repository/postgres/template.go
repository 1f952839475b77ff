package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/psiconnect/practice-api/internal/model"
	"github.com/psiconnect/practice-api/internal/repository"
)

const templateCacheKey = "message_templates"

// templateRepository reads the message_templates entry from the app_settings
// key-value store. Lookups go through a short-lived in-process cache so the
// worker does not hit the settings table once per pass.
type templateRepository struct {
	BaseRepository
	cache *cache.Cache
}

func NewTemplateRepository(base BaseRepository, ttl time.Duration) repository.TemplateRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &templateRepository{
		BaseRepository: base,
		cache:          cache.New(ttl, 2*ttl),
	}
}

func (r *templateRepository) GetTemplates(ctx context.Context) (model.TemplateSet, error) {
	if cached, ok := r.cache.Get(templateCacheKey); ok {
		return cached.(model.TemplateSet), nil
	}

	query := `SELECT value FROM app_settings WHERE key = $1`

	var raw []byte
	err := r.db.GetContext(ctx, &raw, query, templateCacheKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message templates: %w", err)
	}

	var templates model.TemplateSet
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode message templates: %w", err)
	}

	r.cache.Set(templateCacheKey, templates, cache.DefaultExpiration)
	return templates, nil
}
