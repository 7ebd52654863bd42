// Package ai provides the bundled expense categorizer and receipt text extractor.
//
// Both adapters are rule based: keywords found in an expense description,
// merchant or receipt text are scored per category.
package ai

import (
	"context"
	"sort"
	"strings"
	"unicode"

	appfinance "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

const (
	baseConfidence    = 0.6
	perHitConfidence  = 0.1
	merchantBonus     = 0.1
	maxConfidence     = 0.95
	ambiguousDiscount = 0.5
)

// DefaultKeywordRules maps the system categories to the keywords that suggest them
func DefaultKeywordRules() map[string][]string {
	return map[string][]string{
		finance.CategoryOffice:       {"office", "stationery", "paper", "printer", "toner", "desk", "chair", "staples"},
		finance.CategoryTravel:       {"flight", "airline", "hotel", "taxi", "uber", "train", "rail", "parking", "fuel", "airbnb", "car rental"},
		finance.CategoryMeals:        {"restaurant", "lunch", "dinner", "breakfast", "coffee", "cafe", "catering", "pizza", "bar"},
		finance.CategorySoftware:     {"software", "license", "subscription", "saas", "github", "aws", "cloud", "hosting", "domain"},
		finance.CategoryMarketing:    {"advertising", "ads", "marketing", "campaign", "sponsorship", "flyer", "promotion"},
		finance.CategoryProfessional: {"consulting", "legal", "lawyer", "accountant", "accounting", "notary", "audit", "training"},
	}
}

type keywordRule struct {
	category string
	keywords []string
}

// KeywordCategorizer suggests a category by counting keyword hits
type KeywordCategorizer struct {
	rules  []keywordRule
	logger *zap.Logger
}

// CategorizerOption configures a KeywordCategorizer
type CategorizerOption func(*KeywordCategorizer)

// WithCategorizerLogger sets the logger
func WithCategorizerLogger(logger *zap.Logger) CategorizerOption {
	return func(c *KeywordCategorizer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewKeywordCategorizer creates a categorizer from category → keywords rules.
// Empty rules fall back to DefaultKeywordRules.
func NewKeywordCategorizer(rules map[string][]string, opts ...CategorizerOption) *KeywordCategorizer {
	if len(rules) == 0 {
		rules = DefaultKeywordRules()
	}
	c := &KeywordCategorizer{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for category, keywords := range rules {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		rule := keywordRule{category: category}
		for _, kw := range keywords {
			if kw = c.normalize(kw); kw != "" {
				rule.keywords = append(rule.keywords, kw)
			}
		}
		if len(rule.keywords) > 0 {
			c.rules = append(c.rules, rule)
		}
	}
	// map iteration order is random; ties must resolve the same way every time
	sort.Slice(c.rules, func(i, j int) bool { return c.rules[i].category < c.rules[j].category })
	return c
}

// Categorize implements appfinance.Categorizer
func (c *KeywordCategorizer) Categorize(ctx context.Context, req appfinance.CategorizationRequest) (appfinance.CategorySuggestion, error) {
	if err := ctx.Err(); err != nil {
		return appfinance.CategorySuggestion{}, err
	}

	text := c.normalize(strings.Join([]string{req.Description, req.Merchant, req.ReceiptText}, " "))
	merchant := c.normalize(req.Merchant)

	suggestion := c.score(text, merchant)
	c.logger.Debug("Categorized expense",
		zap.String("category", suggestion.Category),
		zap.Float64("confidence", suggestion.Confidence),
	)
	return suggestion, nil
}

func (c *KeywordCategorizer) score(text, merchant string) appfinance.CategorySuggestion {
	best := appfinance.CategorySuggestion{Category: finance.CategoryUncategorized}
	bestHits, runnerUp := 0, 0

	for _, rule := range c.rules {
		hits, inMerchant := 0, false
		for _, kw := range rule.keywords {
			if containsWord(text, kw) {
				hits++
				if merchant != "" && containsWord(merchant, kw) {
					inMerchant = true
				}
			}
		}
		if hits == 0 {
			continue
		}

		confidence := baseConfidence + perHitConfidence*float64(hits-1)
		if inMerchant {
			confidence += merchantBonus
		}
		if confidence > maxConfidence {
			confidence = maxConfidence
		}

		switch {
		case hits > bestHits || (hits == bestHits && confidence > best.Confidence):
			runnerUp = bestHits
			bestHits = hits
			best = appfinance.CategorySuggestion{Category: rule.category, Confidence: confidence}
		case hits > runnerUp:
			runnerUp = hits
		}
	}

	if bestHits > 0 && runnerUp == bestHits {
		best.Confidence *= ambiguousDiscount
	}
	return best
}

// normalize case-folds s and collapses everything that is not a letter or digit into single spaces
func (c *KeywordCategorizer) normalize(s string) string {
	// a Caser is stateful and cannot be shared between goroutines
	fields := strings.FieldsFunc(cases.Fold().String(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// containsWord reports whether kw occurs in text on word boundaries.
// Both arguments must already be normalized.
func containsWord(text, kw string) bool {
	padded := " " + text + " "
	return strings.Contains(padded, " "+kw+" ")
}

var _ appfinance.Categorizer = (*KeywordCategorizer)(nil)
