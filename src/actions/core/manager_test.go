package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	name     string
	startErr error
	events   *[]string
}

func (f *fakeModule) Name() string { return f.name }

func (f *fakeModule) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	*f.events = append(*f.events, "start:"+f.name)
	return nil
}

func (f *fakeModule) Stop(ctx context.Context) {
	*f.events = append(*f.events, "stop:"+f.name)
}

func TestManagerStartsInOrderAndStopsInReverse(t *testing.T) {
	var events []string
	m := NewManager(&fakeModule{name: "a", events: &events}, nil, &fakeModule{name: "b", events: &events})
	require.NoError(t, m.Add(&fakeModule{name: "c", events: &events}))

	require.NoError(t, m.Start(context.Background()))
	m.Stop(context.Background())

	assert.Equal(t, []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}, events)
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var events []string
	boom := errors.New("boom")
	m := NewManager(
		&fakeModule{name: "a", events: &events},
		&fakeModule{name: "b", events: &events, startErr: boom},
		&fakeModule{name: "c", events: &events},
	)

	err := m.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "module b failed")
	assert.Equal(t, []string{"start:a", "stop:a"}, events)

	// nothing left running, so Stop is a no-op
	m.Stop(context.Background())
	assert.Len(t, events, 2)
}

func TestManagerRejectsAddAfterStartAndDoubleStart(t *testing.T) {
	var events []string
	m := NewManager(&fakeModule{name: "a", events: &events})
	require.NoError(t, m.Start(context.Background()))

	assert.Error(t, m.Add(&fakeModule{name: "late", events: &events}))
	assert.Error(t, m.Start(context.Background()))

	m.Stop(context.Background())
	require.NoError(t, m.Add(&fakeModule{name: "after-stop", events: &events}))
}
