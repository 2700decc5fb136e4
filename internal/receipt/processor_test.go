package receipt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProcessEndToEnd(t *testing.T) {
	ex := &fakeExtractor{pages: []string{receiptText(
		tableLine("ArtikelX", "4", "20,00"),
		tableLine("PANT", "", "2,00"),
	)}}

	p, err := NewProcessor(ex, DefaultOptions(), zap.NewNop())
	require.NoError(t, err)

	res, err := p.Process(context.Background(), "kvitto.pdf")
	require.NoError(t, err)

	// (20 + 2) / 4 = 5.5 -> 6
	assert.Equal(t, []PricedItem{{Name: "ArtikelX", UnitPrice: 6}}, res.Items)
	assert.Equal(t, "kvitto.pdf", res.Source)
	assert.Len(t, res.Rows, 2)
	assert.Equal(t, 1, res.Stats.Pages)
	assert.Equal(t, 2, res.Stats.TableLines)
	assert.Equal(t, 1, res.Stats.Deposits)
	assert.Equal(t, 1, res.Stats.Items)
}

func TestProcessExtractsOnce(t *testing.T) {
	ex := &fakeExtractor{pages: []string{receiptText(
		tableLine("KAFFE BRYGG 500G", "4", "200,00"),
		tableLine("Bästa pris", "", ""),
		tableLine("COCA-COLA 33CL", "24", "180,00"),
		tableLine("PANT 1 KR", "", "24,00"),
	)}}

	p, err := NewProcessor(ex, DefaultOptions(), nil)
	require.NoError(t, err)

	res, err := p.Process(context.Background(), "kvitto.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, ex.calls)
	assert.Equal(t, []PricedItem{
		{Name: "KAFFE BRYGG 500G", UnitPrice: 50},
		{Name: "COCA-COLA 33CL", UnitPrice: 9},
	}, res.Items)
	assert.Equal(t, 1, res.Stats.Excluded)
}

func TestProcessLogsSkippedRows(t *testing.T) {
	ex := &fakeExtractor{pages: []string{receiptText(
		tableLine("KAFFE BRYGG 500G", "4", "200,00"),
		tableLine("GRATIS PROV", "1", ""),
		tableLine("Pallini Limoncello", "6", "540,00"),
		tableLine("EUR-Pall", "1", "0,00"),
	)}}

	core, logs := observer.New(zapcore.DebugLevel)
	p, err := NewProcessor(ex, DefaultOptions(), zap.New(core))
	require.NoError(t, err)

	res, err := p.Process(context.Background(), "kvitto.pdf")
	require.NoError(t, err)

	assert.Equal(t, []PricedItem{
		{Name: "KAFFE BRYGG 500G", UnitPrice: 50},
		{Name: "Pallini Limoncello", UnitPrice: 90},
	}, res.Items)
	assert.Equal(t, 1, res.Stats.Unpriced)
	assert.Equal(t, 1, res.Stats.Excluded)

	skipped := logs.FilterMessage("row skipped").AllUntimed()
	require.Len(t, skipped, 2)
	assert.Equal(t, "GRATIS PROV", skipped[0].ContextMap()["name"])
	assert.Equal(t, KindUnpriced, skipped[0].ContextMap()["kind"])
	assert.Equal(t, "EUR-Pall", skipped[1].ContextMap()["name"])
	assert.Equal(t, KindExcluded, skipped[1].ContextMap()["kind"])
}

func TestProcessUnreadableDocument(t *testing.T) {
	cause := errors.New("not a pdf")
	p, err := NewProcessor(&fakeExtractor{err: cause}, DefaultOptions(), nil)
	require.NoError(t, err)

	_, err = p.Process(context.Background(), "broken.pdf")
	assert.ErrorIs(t, err, ErrMalformedReceipt)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "document unreadable")
}

func TestProcessCancelledContext(t *testing.T) {
	p, err := NewProcessor(&fakeExtractor{err: context.Canceled}, DefaultOptions(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Process(ctx, "kvitto.pdf")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrMalformedReceipt)
}

func TestProcessMalformedLayout(t *testing.T) {
	p, err := NewProcessor(&fakeExtractor{pages: []string{"ICA Kvantum\nno table here\n"}}, DefaultOptions(), nil)
	require.NoError(t, err)

	_, err = p.Process(context.Background(), "ica.pdf")
	assert.ErrorIs(t, err, ErrMalformedReceipt)
}

func TestProcessorRows(t *testing.T) {
	ex := &fakeExtractor{pages: []string{receiptText(
		tableLine("ArtikelX", "4", "20,00"),
		tableLine("Bästa pris", "", ""),
	)}}

	p, err := NewProcessor(ex, DefaultOptions(), nil)
	require.NoError(t, err)

	rows, err := p.Rows(context.Background(), "kvitto.pdf")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bästa pris", rows[1].TrimmedName())
	assert.True(t, rows[1].IsBlank())
}

func TestNewProcessorValidation(t *testing.T) {
	_, err := NewProcessor(nil, DefaultOptions(), nil)
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.Layout.Isolation = "guess"
	_, err = NewProcessor(&fakeExtractor{}, opts, nil)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.Pricing.DepositMode = "both"
	_, err = NewProcessor(&fakeExtractor{}, opts, nil)
	assert.Error(t, err)
}
