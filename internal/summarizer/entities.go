package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/metrics"
	"github.com/deusflow/newsbot/internal/news"
	"github.com/deusflow/newsbot/internal/textutil"
)

// GenerativeEntities asks a TextModel for a JSON object of category lists.
type GenerativeEntities struct {
	model    TextModel
	provider string
	th       Thresholds
}

func NewGenerativeEntities(provider string, model TextModel, th Thresholds) *GenerativeEntities {
	return &GenerativeEntities{model: model, provider: provider, th: th}
}

func (g *GenerativeEntities) Name() string { return g.provider }

func (g *GenerativeEntities) Extract(ctx context.Context, text string, lang news.Language) (news.EntityMap, error) {
	out, err := g.model.Generate(ctx, entityPrompt(text, lang, g.th.MaxPerCategory))
	if err != nil {
		return nil, fmt.Errorf("%s entities: %w", g.provider, err)
	}
	return ParseEntityJSON(out, g.th.MaxPerCategory)
}

// ParseEntityJSON decodes a category -> names object, optionally wrapped in a
// code fence. Unknown categories are dropped; names are trimmed, deduplicated
// and capped at perCategory. A response with no usable entity is an error.
func ParseEntityJSON(raw string, perCategory int) (news.EntityMap, error) {
	var decoded map[string][]string
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("parse entity json: %w", err)
	}

	keys := make([]string, 0, len(decoded))
	for k := range decoded {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(news.EntityMap)
	for _, key := range keys {
		category, ok := news.ParseCategory(key)
		if !ok {
			continue
		}
		for _, name := range decoded[key] {
			name = strings.TrimSpace(name)
			if name == "" || len(out[category]) >= perCategory || contains(out[category], name) {
				continue
			}
			out[category] = append(out[category], name)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("parse entity json: %w", ErrNoResult)
	}
	return out, nil
}

// ClassicalEntities ranks entities from an EntityAnalyzer by salience.
type ClassicalEntities struct {
	analyzer EntityAnalyzer
	th       Thresholds
}

func NewClassicalEntities(analyzer EntityAnalyzer, th Thresholds) *ClassicalEntities {
	return &ClassicalEntities{analyzer: analyzer, th: th}
}

func (c *ClassicalEntities) Name() string { return "classical" }

func (c *ClassicalEntities) Extract(ctx context.Context, text string, lang news.Language) (news.EntityMap, error) {
	entities, err := c.analyzer.AnalyzeEntities(ctx, text, string(lang))
	if err != nil {
		return nil, fmt.Errorf("classical entities: %w", err)
	}
	return c.Rank(entities, lang), nil
}

// Rank filters, buckets and orders raw entities. The result may be empty.
func (c *ClassicalEntities) Rank(entities []news.ScoredEntity, lang news.Language) news.EntityMap {
	buckets := make(map[news.EntityCategory][]news.ScoredEntity)
	for _, e := range entities {
		if e.Salience <= c.th.MinSalience {
			continue
		}
		if !c.IsValidEntity(e.Name, e.Type, lang) {
			continue
		}

		category, ok := news.ParseCategory(e.Type)
		if !ok {
			category = news.CategoryOther
		}
		if containsEntity(buckets[category], e.Name) {
			continue
		}
		buckets[category] = append(buckets[category], e)
	}

	out := make(news.EntityMap)
	for category, list := range buckets {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Salience > list[j].Salience })
		if len(list) > c.th.MaxPerCategory {
			list = list[:c.th.MaxPerCategory]
		}
		names := make([]string, len(list))
		for i, e := range list {
			names[i] = e.Name
		}
		out[category] = names
	}
	return out
}

// IsValidEntity rejects names that look like sentence fragments rather
// than entities. entityType is the raw type reported by the service.
func (c *ClassicalEntities) IsValidEntity(name, entityType string, lang news.Language) bool {
	length := textutil.RuneLen(name)

	if strings.EqualFold(entityType, string(news.CategoryPerson)) {
		switch {
		case lang.IsChinese() && length > c.th.MaxChinesePersonLen:
			return false
		case strings.ContainsAny(name, ",.;"):
			return false
		case length > c.th.MaxPersonLen:
			return false
		}
	}

	if strings.ContainsAny(name, "。！？；") {
		return false
	}
	if strings.Contains(name, ".") && length > c.th.MaxDottedNameLen {
		return false
	}
	return true
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

func containsEntity(list []news.ScoredEntity, name string) bool {
	for _, e := range list {
		if e.Name == name {
			return true
		}
	}
	return false
}

// EntityExtractor runs entity strategies in order and returns the first
// non-empty map. It never fails.
type EntityExtractor struct {
	strategies []EntityStrategy
}

func NewEntityExtractor(strategies ...EntityStrategy) *EntityExtractor {
	kept := make([]EntityStrategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &EntityExtractor{strategies: kept}
}

func (x *EntityExtractor) Extract(ctx context.Context, text string, lang news.Language) news.EntityMap {
	for _, s := range x.strategies {
		entities, err := s.Extract(ctx, text, lang)
		if err != nil {
			logger.Warn("entity strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if len(entities) == 0 {
			logger.Debug("entity strategy returned nothing", "strategy", s.Name())
			continue
		}

		if _, classical := s.(*ClassicalEntities); classical {
			metrics.Global.IncrementClassicalEntities()
		} else {
			metrics.Global.IncrementGenerativeEntities()
		}
		return entities
	}
	return news.EntityMap{}
}
