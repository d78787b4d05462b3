package plasticity

import (
	"context"
	"testing"

	"github.com/learn-decentralized-systems/toytlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignals_HoseReceivesRecords(t *testing.T) {
	ed := testEditor(t)
	ctx := context.Background()

	feed := ed.Signals.AddHose("viewport")
	defer ed.Signals.RemoveHose("viewport")

	cmd := ed.NewCommand("box", func(ctx context.Context) error { return nil })
	require.Nil(t, ed.Enqueue(cmd).Wait(ctx))

	recs, err := feed.Feed()
	require.Nil(t, err)
	var lits []byte
	for _, rec := range recs {
		lit, body, rest := toytlv.TakeAny(rec)
		assert.Empty(t, rest)
		lits = append(lits, lit)
		if lit != SigHistoryChanged {
			id := cmd.ID()
			assert.Equal(t, id[:], body)
		}
	}
	assert.Equal(t, []byte{SigCommandStarted, SigHistoryChanged, SigCommandFinished, SigCommandEnded}, lits)
}

func TestSignals_ReplacingHoseClosesOld(t *testing.T) {
	ed := testEditor(t)
	ctx := context.Background()

	old := ed.Signals.AddHose("ui")
	fresh := ed.Signals.AddHose("ui")

	cmd := ed.NewCommand("noop", func(ctx context.Context) error { return nil })
	require.Nil(t, ed.Enqueue(cmd).Wait(ctx))

	recs, err := fresh.Feed()
	require.Nil(t, err)
	assert.NotEmpty(t, recs)

	_, err = old.Feed()
	assert.NotNil(t, err)
}
