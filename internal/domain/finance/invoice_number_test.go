package finance_test

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSequence struct {
	last int
	err  error
}

func (s fixedSequence) LastSequenceForYear(_ context.Context, _ int) (int, error) {
	return s.last, s.err
}

func TestDateRandomGenerator(t *testing.T) {
	g := finance.NewDateRandomGenerator()
	pattern := regexp.MustCompile(`^INV-20260314-[0-9A-F]{8}$`)

	first, err := g.Next(context.Background(), date(2026, 3, 14))
	require.NoError(t, err)
	assert.Regexp(t, pattern, first)

	second, err := g.Next(context.Background(), date(2026, 3, 14))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestYearSequenceGenerator(t *testing.T) {
	g := finance.NewYearSequenceGenerator(fixedSequence{last: 41})

	n, err := g.Next(context.Background(), date(2026, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0042", n)

	n, err = g.Next(context.Background(), date(2026, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0043", n, "retries advance past unpersisted candidates")

	n, err = g.Next(context.Background(), date(2027, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-0042", n)
}

func TestYearSequenceGenerator_SourceError(t *testing.T) {
	g := finance.NewYearSequenceGenerator(fixedSequence{err: errors.New("db down")})
	_, err := g.Next(context.Background(), date(2026, 6, 1))
	assert.ErrorContains(t, err, "db down")
}

func TestParseSequenceNumber(t *testing.T) {
	seq, err := finance.ParseSequenceNumber("INV-2026-0042", 2026)
	require.NoError(t, err)
	assert.Equal(t, 42, seq)

	seq, err = finance.ParseSequenceNumber(finance.FormatSequenceNumber(2026, 10000), 2026)
	require.NoError(t, err)
	assert.Equal(t, 10000, seq)

	for _, number := range []string{"INV-2025-0042", "INV-20260314-ABCDEF12", "INV-2026-", "INV-2026--1", "INV-2026-+7"} {
		_, err := finance.ParseSequenceNumber(number, 2026)
		assert.ErrorIs(t, err, shared.ErrInvalidArgument, number)
	}

	_, err = finance.ParseSequenceNumber("INV-2026-12ab", 2026)
	assert.ErrorIs(t, err, strconv.ErrSyntax)

	_, err = finance.ParseSequenceNumber("INV-2026-"+strings.Repeat("9", 40), 2026)
	assert.ErrorIs(t, err, strconv.ErrRange)
}
